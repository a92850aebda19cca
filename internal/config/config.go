package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	AppEnv  string `env:"APP_ENV" envDefault:"production"`
	GitSHA  string `env:"GIT_SHA"`
	Build   string `env:"BUILD_TIME"`
	Origins string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"vercel.app"`

	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	Redis     RedisConfig
	Chain     ChainConfig
	Gate      GateConfig
	Profile   ProfileConfig
	Image     ImageConfig
	Storage   StorageConfig
	Rewards   RewardConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig

	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"8s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	TLS      bool   `env:"REDIS_TLS" envDefault:"false"`
}

type ChainConfig struct {
	RPCURL        string `env:"RPC_URL" envDefault:"https://mainnet.base.org"`
	ChainID       int64  `env:"CHAIN_ID" envDefault:"8453"`
	TokenAddress  string `env:"TOKEN_ADDRESS"`
	TokenDecimals int32  `env:"TOKEN_DECIMALS" envDefault:"18"`
	NFTContract   string `env:"NFT_CONTRACT_ADDRESS"`
	MintPriceWei  string `env:"MINT_PRICE_WEI" envDefault:"3000000000000000"`
	// MintUnitPrice is the per-mint price in ETH used for leaderboard totals.
	MintUnitPrice string `env:"MINT_UNIT_PRICE" envDefault:"0.003"`
}

type GateConfig struct {
	AccessThreshold int64  `env:"ACCESS_THRESHOLD_TOKENS" envDefault:"5000000"`
	BonusThreshold  int64  `env:"BONUS_THRESHOLD_TOKENS" envDefault:"10000000"`
	MinEURValue     string `env:"MIN_EUR_VALUE" envDefault:"1"`
	EURPrice        string `env:"EUR_PRICE_OVERRIDE"`
	PriceFeedURL    string `env:"PRICE_FEED_URL" envDefault:"https://api.coingecko.com/api/v3/simple/token_price/base"`
	PriceFeedAPIKey string `env:"PRICE_FEED_API_KEY"`
}

type ProfileConfig struct {
	NeynarBaseURL string `env:"NEYNAR_BASE_URL" envDefault:"https://api.neynar.com"`
	NeynarAPIKey  string `env:"NEYNAR_API_KEY"`
	HubBaseURL    string `env:"FARCASTER_HUB_URL" envDefault:"https://hub.pinata.cloud"`
	FnameBaseURL  string `env:"FNAME_REGISTRY_URL" envDefault:"https://fnames.farcaster.xyz"`
}

type ImageConfig struct {
	ReplicateToken    string        `env:"REPLICATE_API_TOKEN"`
	ReplicateBaseURL  string        `env:"REPLICATE_BASE_URL" envDefault:"https://api.replicate.com"`
	InstantIDModel    string        `env:"INSTANTID_MODEL" envDefault:"zsxkib/instant-id"`
	IDStrength        float64       `env:"INSTANTID_IP_ADAPTER_SCALE" envDefault:"0.8"`
	IDControlStrength float64       `env:"INSTANTID_CONTROLNET_SCALE" envDefault:"0.8"`
	IDGuidance        float64       `env:"INSTANTID_GUIDANCE_SCALE" envDefault:"5"`
	Img2ImgModel      string        `env:"IMG2IMG_MODEL" envDefault:"stability-ai/sdxl"`
	Img2ImgStrength   float64       `env:"IMG2IMG_PROMPT_STRENGTH" envDefault:"0.65"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiImageModel  string        `env:"GEMINI_IMAGE_MODEL" envDefault:"models/gemini-2.5-flash-image"`
	ImagenModel       string        `env:"IMAGEN_MODEL" envDefault:"imagen-4.0-generate-001"`
	TextModel         string        `env:"GEMINI_TEXT_MODEL" envDefault:"gemini-2.5-flash"`
	PollinationsURL   string        `env:"POLLINATIONS_BASE_URL" envDefault:"https://image.pollinations.ai"`
	Timeout           time.Duration `env:"IMAGE_TIMEOUT" envDefault:"60s"`
}

type StorageConfig struct {
	PinataJWT       string `env:"PINATA_JWT"`
	PinataBaseURL   string `env:"PINATA_BASE_URL" envDefault:"https://api.pinata.cloud"`
	GatewayPattern  string `env:"PINATA_GATEWAY" envDefault:"https://gateway.pinata.cloud/ipfs/%s"`
	Bucket          string `env:"STORAGE_BUCKET"`
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`
}

type RewardConfig struct {
	SocialAmount int64 `env:"SOCIAL_REWARD_AMOUNT" envDefault:"100"`
	HolderAmount int64 `env:"HOLDER_BONUS_AMOUNT" envDefault:"500"`
}

type RateLimitConfig struct {
	Enabled bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Limit   int           `env:"RATE_LIMIT_GENERATE" envDefault:"5"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	Prefix  string        `env:"RATE_LIMIT_PREFIX" envDefault:"rl"`
}

type CacheConfig struct {
	Enabled bool          `env:"CACHE_ENABLED" envDefault:"true"`
	TTL     time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	Prefix  string        `env:"CACHE_PREFIX" envDefault:"cache"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Development() bool {
	return c.AppEnv == "development"
}
