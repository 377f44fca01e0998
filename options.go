package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"kobuki-controller/kobuki"
	"kobuki-controller/sequencer"
	"kobuki-controller/transport"
)

type LogLevel int

const (
	LogLevelNone  LogLevel = 0
	LogLevelError LogLevel = 1
	LogLevelWarn  LogLevel = 2
	LogLevelInfo  LogLevel = 3
	LogLevelDebug LogLevel = 4
)

const (
	TransportUDP = "udp"
	TransportCAN = "can"

	envPrefix = "KOBUKI"
)

type Options struct {
	Help    bool
	Version bool

	LogLevel LogLevel
	LogFile  string

	IP         string
	Port       int
	ScriptFile string
	BaudRate   int

	Transport    string
	CANDevice    string
	CANFrameID   uint32
	MaxFrameRate float64
	DryRun       bool

	StartupPause time.Duration
	Checksum     kobuki.ChecksumPolicy

	RedisServerAddr string
	RedisServerPort uint16

	MetricsFile string
}

// NewFlagSet defines the command line surface
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.Bool("help", false, "Print help")
	fs.Bool("version", false, "Print version info")
	fs.String("config", "", "Optional config file (yaml, json or toml)")
	fs.String("ip", "192.168.240.1", "Robot bridge IPv4 address")
	fs.Int("port", 5555, "Robot bridge UDP port")
	fs.String("script", "script.txt", "Script file name")
	fs.Int("baud", 115200, "Serial baud rate (unused by the UDP and CAN transports)")
	fs.Int("dbg", int(LogLevelError), "Log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	fs.String("log_file", "", "Also write logs to this file, rotated")
	fs.String("transport", TransportUDP, "Frame transport (udp or can)")
	fs.String("can_device", "can0", "CAN device name for the can transport")
	fs.String("can_id", fmt.Sprintf("0x%03X", transport.DefaultCANFrameID), "CAN frame id for the can transport")
	fs.Float64("max_frame_rate", 0, "Maximum frames per second (0 = unlimited)")
	fs.Bool("dry_run", false, "Log frames instead of sending them")
	fs.Duration("startup_pause", sequencer.DefaultStartupPause, "Pause between steps of the startup LED indication")
	fs.String("checksum", kobuki.ChecksumXOR.String(), "Frame checksum policy (xor or zero)")
	fs.String("redis_server", "", "Redis server address for status publishing (empty = disabled)")
	fs.Int("redis_port", 6379, "Redis server port")
	fs.String("metrics_file", "", "Write Prometheus metrics to this file when the run ends")

	return fs
}

// LoadOptions parses args and merges them with environment variables
// (KOBUKI_<FLAG>) and the optional config file. Flags win over env, env over file.
func LoadOptions(fs *pflag.FlagSet, args []string) (*Options, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	opts := &Options{
		Help:            v.GetBool("help"),
		Version:         v.GetBool("version"),
		LogLevel:        LogLevel(v.GetInt("dbg")),
		LogFile:         v.GetString("log_file"),
		IP:              v.GetString("ip"),
		Port:            v.GetInt("port"),
		ScriptFile:      v.GetString("script"),
		BaudRate:        v.GetInt("baud"),
		Transport:       strings.ToLower(v.GetString("transport")),
		CANDevice:       v.GetString("can_device"),
		MaxFrameRate:    v.GetFloat64("max_frame_rate"),
		DryRun:          v.GetBool("dry_run"),
		StartupPause:    v.GetDuration("startup_pause"),
		RedisServerAddr: v.GetString("redis_server"),
		MetricsFile:     v.GetString("metrics_file"),
	}
	if opts.Help || opts.Version {
		return opts, nil
	}

	if err := opts.parseDerived(v); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (o *Options) parseDerived(v *viper.Viper) error {
	checksum, err := kobuki.ParseChecksumPolicy(v.GetString("checksum"))
	if err != nil {
		return err
	}
	o.Checksum = checksum

	id, err := strconv.ParseUint(v.GetString("can_id"), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid CAN frame id %q: %w", v.GetString("can_id"), err)
	}
	o.CANFrameID = uint32(id)

	port := v.GetInt("redis_port")
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid redis port %d", port)
	}
	o.RedisServerPort = uint16(port)

	return nil
}

// Validate checks option ranges
func (o *Options) Validate() error {
	if o.LogLevel < LogLevelNone || o.LogLevel > LogLevelDebug {
		return fmt.Errorf("invalid log level %d", o.LogLevel)
	}
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	if o.ScriptFile == "" {
		return fmt.Errorf("script file name is empty")
	}
	switch o.Transport {
	case TransportUDP, TransportCAN:
	default:
		return fmt.Errorf("invalid transport: %s (must be 'udp' or 'can')", o.Transport)
	}
	if o.CANFrameID > 0x7FF {
		return fmt.Errorf("CAN frame id 0x%X does not fit an 11-bit identifier", o.CANFrameID)
	}
	if o.MaxFrameRate < 0 {
		return fmt.Errorf("invalid max frame rate %g", o.MaxFrameRate)
	}
	if o.StartupPause < 0 {
		return fmt.Errorf("invalid startup pause %s", o.StartupPause)
	}
	return nil
}
