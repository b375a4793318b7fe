package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 2, 15, 17, 31, 50, 0, time.FixedZone("BRT", -3*60*60))

func TestNewEvent_Success(t *testing.T) {
	ev := NewEvent(Conversion{
		ExecutionID: "exec-1",
		InputPath:   "n8n-workflow-original.json",
		OutputPath:  "n8n-workflow-webhook-ready.json",
		IngressID:   "in-1",
		ProcessorID: "proc-1",
		NodeCount:   5,
	}, fixedNow)

	assert.Equal(t, "exec-1", ev.ExecutionID)
	assert.Equal(t, "in-1", ev.NodeID)
	assert.Equal(t, NodeType, ev.NodeType)
	assert.Equal(t, "success", ev.Status)
	assert.Equal(t, "2026-02-15T20:31:50Z", ev.Timestamp)
	assert.Equal(t, "n8n-workflow-original.json", ev.Input["path"])
	assert.Equal(t, "proc-1", ev.Output["processor_id"])
	assert.Equal(t, 5, ev.Output["node_count"])
	assert.Empty(t, ev.Error)
}

func TestNewEvent_Failure(t *testing.T) {
	ev := NewEvent(Conversion{
		ExecutionID: "exec-2",
		InputPath:   "missing.json",
		Err:         errors.New("parse error: missing.json: no such file"),
	}, fixedNow)

	assert.Equal(t, "error", ev.Status)
	assert.Equal(t, "parse error: missing.json: no such file", ev.Error)
	assert.Nil(t, ev.Output)
}

// TestEvent_JSON verifies the snake_case keys the audit logger consumes.
func TestEvent_JSON(t *testing.T) {
	ev := NewEvent(Conversion{ExecutionID: "e", IngressID: "i"}, fixedNow)
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{"execution_id", "node_id", "node_type", "status", "timestamp", "input", "output"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "error")
}

func TestEvent_JSONFailureOmitsOutput(t *testing.T) {
	ev := NewEvent(Conversion{ExecutionID: "e", Err: errors.New("boom")}, fixedNow)
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "output")
	assert.Equal(t, "boom", m["error"])
	assert.Equal(t, "error", m["status"])
}

func TestPublisher_DisabledWithoutURL(t *testing.T) {
	p := NewPublisher("", nil)

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(Event{}))
	p.Close()
}

func TestPublisher_UnreachableServerDisables(t *testing.T) {
	p := NewPublisher("nats://127.0.0.1:1", nil)

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(Event{}))
	p.Close()
}

func TestPublisher_NilIsSafe(t *testing.T) {
	var p *Publisher
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(Event{}))
	p.Close()
}

// ---------------------------------------------------------------------------
// Live publishing against a minimal NATS endpoint
// ---------------------------------------------------------------------------

type natsMsg struct {
	Subject string
	Data    []byte
}

// startNATS serves just enough of the NATS client protocol for a publisher:
// INFO on accept, PONG for every PING, and PUB frames delivered on the
// returned channel.
func startNATS(t *testing.T) (string, <-chan natsMsg) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	msgs := make(chan natsMsg, 8)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveNATS(conn, msgs)
		}
	}()
	return "nats://" + ln.Addr().String(), msgs
}

func serveNATS(conn net.Conn, msgs chan<- natsMsg) {
	defer conn.Close()
	host, port, _ := net.SplitHostPort(conn.LocalAddr().String())
	fmt.Fprintf(conn, "INFO {\"server_id\":\"test\",\"version\":\"2.10.0\",\"proto\":1,\"host\":%q,\"port\":%s,\"max_payload\":1048576}\r\n", host, port)

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case strings.HasPrefix(line, "PING"):
			if _, err := io.WriteString(conn, "PONG\r\n"); err != nil {
				return
			}
		case strings.HasPrefix(line, "PUB "):
			fields := strings.Fields(line)
			size, err := strconv.Atoi(fields[len(fields)-1])
			if err != nil {
				return
			}
			payload := make([]byte, size+2)
			if _, err := io.ReadFull(r, payload); err != nil {
				return
			}
			msgs <- natsMsg{Subject: fields[1], Data: payload[:size]}
		}
	}
}

func TestPublisher_PublishesAndDrains(t *testing.T) {
	url, msgs := startNATS(t)

	p := NewPublisher(url, nil)
	require.True(t, p.Enabled())

	ev := NewEvent(Conversion{
		ExecutionID: "exec-9",
		InputPath:   "in.json",
		OutputPath:  "out.json",
		IngressID:   "in-9",
		ProcessorID: "proc-9",
		NodeCount:   5,
	}, fixedNow)
	require.NoError(t, p.Publish(ev))

	select {
	case msg := <-msgs:
		assert.Equal(t, Subject, msg.Subject)
		var got Event
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, "exec-9", got.ExecutionID)
		assert.Equal(t, "in-9", got.NodeID)
		assert.Equal(t, "success", got.Status)
		assert.Equal(t, "proc-9", got.Output["processor_id"])
		assert.Equal(t, float64(5), got.Output["node_count"])
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	p.Close()
	assert.Eventually(t, p.conn.IsClosed, 2*time.Second, 10*time.Millisecond)
}

func TestPublisher_FailedConversionEvent(t *testing.T) {
	url, msgs := startNATS(t)

	p := NewPublisher(url, nil)
	defer p.Close()
	require.NoError(t, p.Publish(NewEvent(Conversion{ExecutionID: "exec-10", Err: errors.New("parse error: x")}, fixedNow)))

	select {
	case msg := <-msgs:
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(msg.Data, &m))
		assert.Equal(t, "error", m["status"])
		assert.Equal(t, "parse error: x", m["error"])
		assert.NotContains(t, m, "output")
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}
