package chain

const aaveDataProviderABI = `[
	{"name":"getReserveConfigurationData","type":"function","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"}],
	 "outputs":[
		{"name":"decimals","type":"uint256"},
		{"name":"ltv","type":"uint256"},
		{"name":"liquidationThreshold","type":"uint256"},
		{"name":"liquidationBonus","type":"uint256"},
		{"name":"reserveFactor","type":"uint256"},
		{"name":"usageAsCollateralEnabled","type":"bool"},
		{"name":"borrowingEnabled","type":"bool"},
		{"name":"stableBorrowRateEnabled","type":"bool"},
		{"name":"isActive","type":"bool"},
		{"name":"isFrozen","type":"bool"}]},
	{"name":"getUserReserveData","type":"function","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"},{"name":"user","type":"address"}],
	 "outputs":[
		{"name":"currentATokenBalance","type":"uint256"},
		{"name":"currentStableDebt","type":"uint256"},
		{"name":"currentVariableDebt","type":"uint256"},
		{"name":"principalStableDebt","type":"uint256"},
		{"name":"scaledVariableDebt","type":"uint256"},
		{"name":"stableBorrowRate","type":"uint256"},
		{"name":"liquidityRate","type":"uint256"},
		{"name":"stableRateLastUpdated","type":"uint40"},
		{"name":"usageAsCollateralEnabled","type":"bool"}]},
	{"name":"getReserveTokensAddresses","type":"function","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"}],
	 "outputs":[
		{"name":"aTokenAddress","type":"address"},
		{"name":"stableDebtTokenAddress","type":"address"},
		{"name":"variableDebtTokenAddress","type":"address"}]},
	{"name":"getReserveEModeCategory","type":"function","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

const aavePoolABI = `[
	{"name":"getEModeCategoryData","type":"function","stateMutability":"view",
	 "inputs":[{"name":"id","type":"uint8"}],
	 "outputs":[{"name":"","type":"tuple","components":[
		{"name":"ltv","type":"uint16"},
		{"name":"liquidationThreshold","type":"uint16"},
		{"name":"liquidationBonus","type":"uint16"},
		{"name":"priceSource","type":"address"},
		{"name":"label","type":"string"}]}]},
	{"name":"getUserEMode","type":"function","stateMutability":"view",
	 "inputs":[{"name":"user","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

// AaveOracleABI is the Aave price oracle
const AaveOracleABI = `[
	{"name":"getAssetPrice","type":"function","stateMutability":"view",
	 "inputs":[{"name":"asset","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

const erc20ABI = `[
	{"name":"balanceOf","type":"function","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

const ajnaPoolInfoUtilsABI = `[
	{"name":"borrowerInfo","type":"function","stateMutability":"view",
	 "inputs":[{"name":"ajnaPool_","type":"address"},{"name":"borrower_","type":"address"}],
	 "outputs":[
		{"name":"debt_","type":"uint256"},
		{"name":"collateral_","type":"uint256"},
		{"name":"t0Np_","type":"uint256"},
		{"name":"thresholdPrice_","type":"uint256"}]},
	{"name":"poolPricesInfo","type":"function","stateMutability":"view",
	 "inputs":[{"name":"ajnaPool_","type":"address"}],
	 "outputs":[
		{"name":"hpb_","type":"uint256"},
		{"name":"hpbIndex_","type":"uint256"},
		{"name":"htp_","type":"uint256"},
		{"name":"htpIndex_","type":"uint256"},
		{"name":"lup_","type":"uint256"},
		{"name":"lupIndex_","type":"uint256"}]},
	{"name":"poolLoansInfo","type":"function","stateMutability":"view",
	 "inputs":[{"name":"ajnaPool_","type":"address"}],
	 "outputs":[
		{"name":"poolSize_","type":"uint256"},
		{"name":"loansCount_","type":"uint256"},
		{"name":"maxBorrower_","type":"address"},
		{"name":"pendingInflator_","type":"uint256"},
		{"name":"pendingInterestFactor_","type":"uint256"}]}
]`

const ajnaPoolABI = `[
	{"name":"debtInfo","type":"function","stateMutability":"view",
	 "inputs":[],
	 "outputs":[
		{"name":"","type":"uint256"},
		{"name":"","type":"uint256"},
		{"name":"","type":"uint256"},
		{"name":"","type":"uint256"}]}
]`

const morphoABI = `[
	{"name":"market","type":"function","stateMutability":"view",
	 "inputs":[{"name":"id","type":"bytes32"}],
	 "outputs":[
		{"name":"totalSupplyAssets","type":"uint128"},
		{"name":"totalSupplyShares","type":"uint128"},
		{"name":"totalBorrowAssets","type":"uint128"},
		{"name":"totalBorrowShares","type":"uint128"},
		{"name":"lastUpdate","type":"uint128"},
		{"name":"fee","type":"uint128"}]},
	{"name":"position","type":"function","stateMutability":"view",
	 "inputs":[{"name":"id","type":"bytes32"},{"name":"user","type":"address"}],
	 "outputs":[
		{"name":"supplyShares","type":"uint256"},
		{"name":"borrowShares","type":"uint128"},
		{"name":"collateral","type":"uint128"}]},
	{"name":"idToMarketParams","type":"function","stateMutability":"view",
	 "inputs":[{"name":"id","type":"bytes32"}],
	 "outputs":[
		{"name":"loanToken","type":"address"},
		{"name":"collateralToken","type":"address"},
		{"name":"oracle","type":"address"},
		{"name":"irm","type":"address"},
		{"name":"lltv","type":"uint256"}]}
]`

const morphoOracleABI = `[
	{"name":"price","type":"function","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	aaveDataProvider = MustParseABI(aaveDataProviderABI)
	aavePool         = MustParseABI(aavePoolABI)
	aaveOracle       = MustParseABI(AaveOracleABI)
	erc20            = MustParseABI(erc20ABI)
	ajnaPoolInfo     = MustParseABI(ajnaPoolInfoUtilsABI)
	ajnaPool         = MustParseABI(ajnaPoolABI)
	morpho           = MustParseABI(morphoABI)
	morphoOracle     = MustParseABI(morphoOracleABI)
)
