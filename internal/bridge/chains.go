package bridge

// chainNames maps Wormhole chain ids to display names.
var chainNames = map[uint16]string{
	1:     "Solana",
	2:     "Ethereum",
	3:     "Terra",
	4:     "BSC",
	5:     "Polygon",
	6:     "Avalanche",
	7:     "Oasis",
	8:     "Algorand",
	9:     "Aurora",
	10:    "Fantom",
	11:    "Karura",
	12:    "Acala",
	13:    "Klaytn",
	14:    "Celo",
	15:    "Near",
	16:    "Moonbeam",
	17:    "Neon",
	18:    "Terra2",
	19:    "Injective",
	20:    "Osmosis",
	21:    "Sui",
	22:    "Aptos",
	23:    "Arbitrum",
	24:    "Optimism",
	25:    "Gnosis",
	26:    "Pythnet",
	28:    "Xpla",
	29:    "BTC",
	30:    "Base",
	32:    "Sei",
	33:    "Rootstock",
	34:    "Scroll",
	35:    "Mantle",
	36:    "Blast",
	37:    "Xlayer",
	38:    "Linea",
	39:    "Berachain",
	40:    "Seievm",
	41:    "Cosmoshub",
	42:    "Evmos",
	43:    "Kujira",
	44:    "Neutron",
	45:    "Celestia",
	46:    "Stargaze",
	47:    "Seda",
	48:    "Dymension",
	49:    "Provenance",
	50:    "Sepolia",
	4000:  "PolygonSepolia",
	10002: "BaseSepolia",
	10003: "OptimismSepolia",
	10004: "HoleskyTestnet",
	10005: "ArbitrumSepolia",
}

// ChainName returns the display name for a Wormhole chain id. Unmapped ids
// render as "Unknown".
func ChainName(id uint16) string {
	if name, ok := chainNames[id]; ok {
		return name
	}
	return "Unknown"
}
