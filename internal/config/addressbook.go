package config

import "github.com/ethereum/go-ethereum/common"

// DefaultAddressBook returns the mainnet address-book constants the
// arbitrage engine is wired against. These are compile-time constants
// rather than environment variables since they're baked into the
// configuration layer, not operator-tunable.
func DefaultAddressBook() AddressBook {
	return AddressBook{
		Native: common.Address{},
		WrappedNative: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), // WETH
		CollateralNative: common.HexToAddress("0x4Ddc2D193948926D02f9B1fE9e1daa0718270ED4"), // cETH
		Executor: common.HexToAddress("0x0000000000000000000000000000000000dEaD"),
		FlashLoanProvider: common.HexToAddress("0x7d2768dE32b0b80b7a3454c06BdAc94A69DDc7A9"), // Aave v2 LendingPool
		FlashQueryHelper: common.HexToAddress("0x5EF1009b9FCD4fbC4812510B53b89b1CBA4E4CC3"), // batch pair reader
		Factories: []common.Address{
			common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"), // Uniswap V2
			common.HexToAddress("0xC0AEe478e3658e2610c5F7A4A2E1777cE9e4f2Ac"), // Sushiswap
			common.HexToAddress("0xBAe5dc9B19004883d0377419FeF3c2C8832d7d7B"), // Shibaswap
			common.HexToAddress("0x115934131916C8b277DD010Ee02de363c09d037c"), // Unifi
			common.HexToAddress("0xd43d5Ea5C3230c7B6D2A3d5B32c7A6dEd1A97F8b"), // CroDefiSwap
			common.HexToAddress("0x566C7E7BFdAF6b1fA9d7E9bC4e7A4d1e6faE4E90"), // Pancakeswap (ETH deployment)
		},
		TokenBlacklist: []common.Address{},
		PoolBlacklist: []common.Address{},
		OriginTokens: []common.Address{
			common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), // WETH
		},
	}
}
