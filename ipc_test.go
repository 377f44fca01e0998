package main

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// subscribeTest subscribes and waits for the confirmation
func subscribeTest(t *testing.T, client *redis.Client, channels ...string) <-chan *redis.Message {
	t.Helper()
	ctx := context.Background()
	sub := client.Subscribe(ctx, channels...)
	for range channels {
		_, err := sub.Receive(ctx)
		require.NoError(t, err)
	}
	t.Cleanup(func() { sub.Close() })
	return sub.Channel()
}

func receiveMessage(t *testing.T, ch <-chan *redis.Message) *redis.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for redis message")
		return nil
	}
}

// streamValues turns the flat field/value list of a stream entry into a map
func streamValues(e miniredis.StreamEntry) map[string]string {
	m := make(map[string]string, len(e.Values)/2)
	for i := 0; i+1 < len(e.Values); i += 2 {
		m[e.Values[i]] = e.Values[i+1]
	}
	return m
}

func TestIPCTx_SendRunState(t *testing.T) {
	mr, client := newTestRedis(t)
	msgs := subscribeTest(t, client, "robot-controller state")
	tx := NewIPCTx(testLogger(), client)

	require.NoError(t, tx.SendRunState(RedisRunState{RunID: "run-1", State: "running", Script: "demo.txt"}))

	assert.Equal(t, "run-1", mr.HGet("robot-controller", "run-id"))
	assert.Equal(t, "running", mr.HGet("robot-controller", "state"))
	assert.Equal(t, "demo.txt", mr.HGet("robot-controller", "script"))

	msg := receiveMessage(t, msgs)
	assert.Equal(t, "robot-controller state", msg.Channel)
	assert.Equal(t, "running", msg.Payload)
}

func TestIPCTx_SendStepAndLed(t *testing.T) {
	mr, client := newTestRedis(t)
	msgs := subscribeTest(t, client, "robot-controller step", "robot-controller led")
	tx := NewIPCTx(testLogger(), client)

	require.NoError(t, tx.SendStep(RedisStep{Index: 3, Command: "sleep 500ms"}))
	require.NoError(t, tx.SendLedState(RedisLedState{Mask: "0x0A00"}))

	assert.Equal(t, "3", mr.HGet("robot-controller", "step"))
	assert.Equal(t, "sleep 500ms", mr.HGet("robot-controller", "command"))
	assert.Equal(t, "0x0A00", mr.HGet("robot-controller", "led"))

	msg := receiveMessage(t, msgs)
	assert.Equal(t, "robot-controller step", msg.Channel)
	assert.Equal(t, "3", msg.Payload)
	msg = receiveMessage(t, msgs)
	assert.Equal(t, "robot-controller led", msg.Channel)
	assert.Equal(t, "0x0A00", msg.Payload)
}

func TestIPCTx_SendDriveAndFrame(t *testing.T) {
	mr, client := newTestRedis(t)
	tx := NewIPCTx(testLogger(), client)

	require.NoError(t, tx.SendDrive(RedisDrive{Speed: -250, Radius: 1000}))
	require.NoError(t, tx.SendLastFrame(RedisLastFrame{Kind: "drive", Data: "AA55"}))

	assert.Equal(t, "-250", mr.HGet("robot-controller", "speed"))
	assert.Equal(t, "1000", mr.HGet("robot-controller", "radius"))
	assert.Equal(t, "drive AA55", mr.HGet("robot-controller", "last-frame"))
}

func TestIPCTx_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	tx := NewIPCTx(testLogger(), client)
	mr.Close()

	assert.Error(t, tx.SendRunState(RedisRunState{State: "running"}))
	assert.Error(t, tx.SendDrive(RedisDrive{}))
}

func TestIPCRx_StopCommand(t *testing.T) {
	_, client := newTestRedis(t)

	var stops atomic.Int32
	rx, err := NewIPCRx(testLogger(), client, func() { stops.Add(1) })
	require.NoError(t, err)
	defer rx.Destroy()

	ctx := context.Background()
	require.NoError(t, client.Publish(ctx, "robot-controller:cmd", "reboot").Err())
	require.NoError(t, client.Publish(ctx, "robot-controller:cmd", " STOP\n").Err())

	require.Eventually(t, func() bool { return stops.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestIPCRx_Destroy(t *testing.T) {
	_, client := newTestRedis(t)

	var stops atomic.Int32
	rx, err := NewIPCRx(testLogger(), client, func() { stops.Add(1) })
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		rx.Destroy()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Destroy did not return")
	}

	// A second Destroy is a no-op
	rx.Destroy()
	assert.Zero(t, stops.Load())
}

func TestIPCRx_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	_, err := NewIPCRx(testLogger(), client, nil)
	assert.Error(t, err)
}

func TestDiag_FaultLifecycle(t *testing.T) {
	mr, client := newTestRedis(t)
	d := NewDiag(testLogger(), client)
	code := strconv.Itoa(int(DiagFaultTransport))

	d.SetFaultPresence(DiagFaultTransport, true)
	d.SetFaultPresence(DiagFaultTransport, true)

	assert.True(t, d.FaultPresent(DiagFaultTransport))
	member, err := mr.SIsMember("robot-controller:fault", code)
	require.NoError(t, err)
	assert.True(t, member)

	entries, err := mr.Stream("events:faults")
	require.NoError(t, err)
	require.Len(t, entries, 1, "repeated set reports once")
	assert.Equal(t, map[string]string{
		"group":       "robot-controller",
		"code":        code,
		"description": "Frame transport send failure",
	}, streamValues(entries[0]))

	d.SetFaultPresence(DiagFaultTransport, false)

	assert.False(t, d.FaultPresent(DiagFaultTransport))
	assert.False(t, mr.Exists("robot-controller:fault"), "empty fault set is removed")

	entries, err = mr.Stream("events:faults")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]string{"group": "robot-controller", "code": "-" + code}, streamValues(entries[1]))
}

func TestDiag_IgnoresNoneAndUnknown(t *testing.T) {
	mr, client := newTestRedis(t)
	d := NewDiag(testLogger(), client)

	d.SetFaultPresence(DiagFaultNone, true)
	d.SetFaultPresence(DiagFault(99), true)

	assert.False(t, d.FaultPresent(DiagFault(99)))
	assert.False(t, mr.Exists("robot-controller:fault"))
	assert.False(t, mr.Exists("events:faults"))
}
