package script

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"kobuki-controller/kobuki"
)

const (
	keywordSpeed = "speed"
	keywordSleep = "sleep"
	keywordLed   = "led"

	// longest sleep that still fits a time.Duration
	maxSleepMS = math.MaxInt64 / int64(time.Millisecond)
)

// ParseFile reads and parses the script at path
func ParseFile(path string, log kobuki.Logger) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script file: %w", err)
	}
	defer f.Close()

	return Parse(f, path, log)
}

// Parse converts script text into commands in file order.
// Parsing stops at the first malformed line and no commands are returned.
func Parse(r io.Reader, name string, log kobuki.Logger) (*Script, error) {
	if log == nil {
		log = kobuki.NopLogger{}
	}
	log.Info("Start to parse script file %s", name)

	s := &Script{Name: name}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		text := scanner.Text()

		cmd, err := parseLine(text)
		if err != nil {
			log.Error("Fail to load script command line - line: %d: %v", lineNo, err)
			return nil, &LineError{Line: lineNo, Text: text, Err: err}
		}
		if cmd == nil {
			continue
		}
		s.Commands = append(s.Commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", name, err)
	}

	log.Info("Success to parse script file - script_lines_size: %d", s.Len())
	for i, cmd := range s.Commands {
		log.Debug("#%d: %s", i, cmd)
	}

	return s, nil
}

// parseLine returns nil for blank, comment and unknown lines
func parseLine(text string) (Command, error) {
	// Only keyword lines are tokenized; anything else may hold free text
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, nil
	}
	switch fields[0] {
	case keywordSpeed, keywordSleep, keywordLed:
	default:
		return nil, nil
	}

	tokens, err := shlex.Split(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	args := tokens[1:]
	switch tokens[0] {
	case keywordSpeed:
		return parseSpeed(args)
	case keywordSleep:
		return parseSleep(args)
	case keywordLed:
		return parseLed(args)
	default:
		return nil, nil
	}
}

// speed <km/h> <radius m> <distance m>
func parseSpeed(args []string) (Command, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("%w: speed needs <speed_km_h> <radius_m> <distance_m>", ErrMalformedLine)
	}

	kmh, err := parseFloat(args[0])
	if err != nil {
		return nil, err
	}
	radiusM, err := parseFloat(args[1])
	if err != nil {
		return nil, err
	}
	distanceM, err := parseFloat(args[2])
	if err != nil {
		return nil, err
	}

	if !fitsInt16(kmh * 1000000 / 3600) {
		return nil, fmt.Errorf("%w: speed %g km/h", ErrOutOfRange, kmh)
	}
	if !fitsInt16(radiusM * 1000) {
		return nil, fmt.Errorf("%w: radius %g m", ErrOutOfRange, radiusM)
	}
	if math.Abs(distanceM*1000) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: distance %g m", ErrOutOfRange, distanceM)
	}

	cmd := DriveCommand{
		SpeedMMs:   KmhToMMs(kmh),
		RadiusMM:   MetersToMM(radiusM),
		DistanceMM: MetersToMM(distanceM),
	}

	cmd.DurationMS, err = MoveTimeMS(cmd.DistanceMM, cmd.SpeedMMs)
	if err != nil {
		return nil, err
	}

	return cmd, nil
}

// sleep <ms>
func parseSleep(args []string) (Command, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%w: sleep needs <duration_ms>", ErrMalformedLine)
	}

	ms, err := parseInt(args[0])
	if err != nil {
		return nil, err
	}
	if ms < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeSleep, ms)
	}
	if int64(ms) > maxSleepMS {
		return nil, fmt.Errorf("%w: sleep %d ms", ErrOutOfRange, ms)
	}

	return SleepCommand{DurationMS: ms}, nil
}

// led <unit> <color>
func parseLed(args []string) (Command, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: led needs <unit> <color>", ErrMalformedLine)
	}

	unit, err := parseInt(args[0])
	if err != nil {
		return nil, err
	}
	color, err := parseInt(args[1])
	if err != nil {
		return nil, err
	}

	return LedCommand{Unit: unit, Color: kobuki.Color(color)}, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return v, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return v, nil
}
