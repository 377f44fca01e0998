package main

// Redis message types for controller status updates
type RedisRunState struct {
	RunID  string
	State  string // starting, running, stopping, done
	Script string
}

type RedisStep struct {
	Index   int
	Command string
}

type RedisLedState struct {
	Mask string // 0x0A00
}

type RedisDrive struct {
	Speed  int // mm/s
	Radius int // mm
}

type RedisLastFrame struct {
	Kind string
	Data string // hex
}
