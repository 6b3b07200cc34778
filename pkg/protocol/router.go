package protocol

import (
	"context"
	"fmt"

	"github.com/summerfi/dma-sdk/pkg/types"
)

// Router dispatches resolver calls to the resolver serving each protocol
// family. A nil family resolver makes that family unsupported.
type Router struct {
	AaveLike   DataResolver
	Ajna       DataResolver
	MorphoBlue DataResolver
}

func (r *Router) resolverFor(p Protocol) (DataResolver, error) {
	var res DataResolver
	switch p {
	case AaveV2, AaveV3, Spark:
		res = r.AaveLike
	case Ajna:
		res = r.Ajna
	case MorphoBlue:
		res = r.MorphoBlue
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedProtocol, int(p))
	}
	if res == nil {
		return nil, fmt.Errorf("%w: no resolver configured for %s", ErrUnsupportedProtocol, p)
	}
	return res, nil
}

func (r *Router) GetCurrentPosition(ctx context.Context, q PositionQuery) (*types.Position, error) {
	res, err := r.resolverFor(q.Protocol)
	if err != nil {
		return nil, err
	}
	return res.GetCurrentPosition(ctx, q)
}

func (r *Router) GetProtocolData(ctx context.Context, q DataQuery) (*Data, error) {
	res, err := r.resolverFor(q.Protocol)
	if err != nil {
		return nil, err
	}
	return res.GetProtocolData(ctx, q)
}
