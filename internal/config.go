package internal

import (
	"time"
)

// Config is populated from the environment by go-env, with .env support via
// godotenv in main. Shared by the relay and the viewer.
type Config struct {
	Host      string `env:"HOST,default=0.0.0.0"`
	Port      int    `env:"PORT,default=5000"`
	DebugPort int    `env:"DEBUG_PORT,default=5001"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=/tmp/chat-relay/badger"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,default=/tmp/chat-relay/bluge"`

	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	// JWTSecret overrides the built-in development secret. Set it in any
	// real deployment.
	JWTSecret         string        `env:"JWT_SECRET"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	// BufferSize bounds the relay's broadcast stream; ConnectionBufferSize
	// bounds each recipient's delivery queue.
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=5s"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`

	// LimitMessages caps one history page; nil means unbounded.
	LimitMessages *int `env:"LIMIT_MESSAGES"`

	ModerationCharacterReplacement string `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	TimelineSize                   int    `env:"TIMELINE_SIZE,default=50"`
}

// CharacterRune returns the masking rune used by the moderator.
func (c Config) CharacterRune() rune {
	for _, r := range c.ModerationCharacterReplacement {
		return r
	}
	return '*'
}
