package generator

import "github.com/SurajNatekar28/token-trading-table/internal/domain"

type tokenInfo struct {
	Symbol string
	Name   string
	BG     string // logo background hex
}

var vocabulary = map[domain.Chain][]tokenInfo{
	domain.ChainSOL: {
		{"SUNNY", "SunnySide Coin", "F9A8D4"},
		{"NOVA", "Nova Burst AI", "A5B4FC"},
		{"SOLX", "SolX Fusion", "7DD3FC"},
		{"PIXEL", "Pixel Legends", "FDE68A"},
		{"SLOTH", "Solana Sloth", "FCA5A5"},
		{"SPRK", "Spark Reactor", "FDBA74"},
		{"MOONI", "Mooni Cat", "6EE7B7"},
		{"SHELL", "Shell Protocol", "C4B5FD"},
		{"GHOST", "GhostChain", "FBCFE8"},
		{"SOLPY", "Sol Python", "99F6E4"},
		{"ALGAE", "Algae Finance", "86EFAC"},
		{"SWORD", "Sword of Sol", "F9A8D4"},
		{"DRGNS", "Dragon Sol", "FDBA74"},
		{"WAVE", "WaveRunner", "7DD3FC"},
		{"ELEV", "ElevateAI", "C7D2FE"},
		{"PLUTO", "PlutoVerse", "FECACA"},
		{"HONEY", "HoneyBee Swap", "FDE047"},
		{"RUNE", "Rune Knight", "D8B4FE"},
		{"SOLB", "Solana Bear", "FCA5A5"},
		{"NEON", "Neon Protocol", "34D399"},
		{"SWARM", "Sol Swarm", "F9A8D4"},
		{"TANGO", "Tango Coin", "FDBA74"},
		{"BYTE", "ByteBuddies", "A7F3D0"},
		{"CLOUD", "CloudRunner", "93C5FD"},
		{"SNYX", "Snyx AI", "FECACA"},
		{"KNITE", "Knight Protocol", "DDD6FE"},
		{"OWL", "Night Owl", "BAE6FD"},
		{"MINTY", "Minty Fresh", "6EE7B7"},
		{"NUTS", "Nutty Squirrel", "FDE68A"},
		{"SLICK", "Slick Memecoin", "FBCFE8"},
	},
	domain.ChainBNB: {
		{"BUNNY", "Bunny Rampage", "F9C74F"},
		{"ROCKET", "RocketBSC", "F94144"},
		{"BSCX", "BSC-Xpress", "90BE6D"},
		{"PANDA", "Panda Swap", "577590"},
		{"MOONB", "MoonBiscuit", "F9844A"},
		{"APEZ", "Apez Kingdom", "4D908E"},
		{"ZILLA", "Zilla Protocol", "F3722C"},
		{"SMASH", "Smash Token", "43AA8B"},
		{"WHISK", "Whisker Inu", "F9C74F"},
		{"BOLT", "ThunderBolt", "577590"},
		{"PUPPY", "PuppyChain", "FFC6FF"},
		{"BRICK", "BrickLayer", "FF595E"},
		{"KOALA", "Koala Swap", "DDDF00"},
		{"SUSHI2", "Sushi 2.0 BSC", "F15BB5"},
		{"HAMMER", "HammerChain", "00F5D4"},
		{"BSCBOT", "BSC Bot AI", "9B5DE5"},
		{"CRAZY", "Crazy Frog BNB", "00BBF9"},
		{"GOOSE", "Goose Protocol", "FEE440"},
		{"FOXAI", "FoxAI BNB", "283618"},
		{"MILK", "Milkshake Swap", "F7B801"},
		{"MONK", "MonkChain", "6A4C93"},
		{"BUFF", "BuffBull", "F3722C"},
		{"BOLT2", "Bolt Unlimited", "577590"},
		{"STORM", "StormShiba BNB", "8ECAE6"},
		{"CHEEZ", "CheezBurgerSwap", "FFCA3A"},
		{"BSCAPE", "BSC Ape Island", "1982C4"},
		{"WOOL", "Wool Finance", "FB5607"},
		{"VIBE", "VibeChain", "FF006E"},
		{"GREML", "Gremlin BSC", "C9ADA7"},
		{"CRUNCH", "CryptoCrunch", "8AC926"},
	},
}
