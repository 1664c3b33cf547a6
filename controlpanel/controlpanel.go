// Package controlpanel reads the three joystick channels off a serial
// control panel (spec.md §4.5), grounded on
// original_source/Server/src/ControlPanel.cpp: a reader goroutine
// accumulates a baseline, applies a moving average, debounces the
// button, and publishes a lock-free snapshot per channel.
package controlpanel

import (
	"bufio"
	"bytes"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"

	"rimoserver/component"
	"rimoserver/config"
	"rimoserver/logx"
	"rimoserver/types"
)

const nChannels = 3

// cell is a single joystick channel's lock-free published reading.
type cell struct {
	x atomic.Int64 // math.Float64bits(x)
	y atomic.Int64 // math.Float64bits(y)
	b atomic.Bool
}

func (c *cell) store(x, y float64, b bool) {
	c.x.Store(int64(math.Float64bits(x)))
	c.y.Store(int64(math.Float64bits(y)))
	c.b.Store(b)
}

func (c *cell) load() (float64, float64, bool) {
	return math.Float64frombits(uint64(c.x.Load())), math.Float64frombits(uint64(c.y.Load())), c.b.Load()
}

// channelState is the reader goroutine's private signal-processing
// state for one channel; only the reader goroutine touches it.
type channelState struct {
	xWindow, yWindow       []float64
	xWindowSum, yWindowSum float64
	baselineX, baselineY   float64
	baselineXAcc           float64
	baselineYAcc           float64
	bStable, bPending      bool
	bPendingCount          int
}

// ControlPanel is the serial joystick reader component.
type ControlPanel struct {
	component.Base

	cfg                   config.SerialPort
	movingAverageDepth    int
	baselineSamples       int
	buttonDebounceSamples int

	log *logx.Logger

	mu      sync.Mutex
	port    serial.Port
	running atomic.Bool
	wg      sync.WaitGroup

	cells         [nChannels]cell
	state         [nChannels]channelState
	baselineCount int
	baselineReady bool
}

// New builds a ControlPanel from the ControlPanel config class. Only
// comm.type == "serial" is currently supported.
func New(cfg config.ControlPanel) *ControlPanel {
	cp := &ControlPanel{
		Base:                  component.NewBase(),
		cfg:                   cfg.Comm.Serial,
		movingAverageDepth:    maxInt(1, cfg.Processing.MovingAverageDepth),
		baselineSamples:       maxInt(1, cfg.Processing.BaselineSamples),
		buttonDebounceSamples: maxInt(1, cfg.Processing.ButtonDebounceSamples),
		log:                   logx.New("controlpanel"),
	}
	cp.resetSignalProcessingState()
	return cp
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ComponentType identifies this component in the registry.
func (cp *ControlPanel) ComponentType() types.RobotComponent { return types.ComponentControlPanel }

func (cp *ControlPanel) address() string {
	if cp.cfg.Device != "" {
		return cp.cfg.Device
	}
	return cp.cfg.Port
}

// Initialize opens the serial port and starts the reader goroutine.
func (cp *ControlPanel) Initialize() error {
	cp.Reset()

	cp.mu.Lock()
	defer cp.mu.Unlock()

	cp.log.Info("Initializing ControlPanel communication via %s", cp.address())
	port, err := serial.Open(&serial.Config{
		Address:  cp.address(),
		BaudRate: cp.cfg.Baud,
		DataBits: cp.cfg.DataBits,
		StopBits: cp.cfg.StopBits,
		Parity:   cp.cfg.Parity,
		Timeout:  time.Duration(cp.cfg.ReadTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		cp.SetError()
		return err
	}
	cp.port = port
	cp.resetSignalProcessingState()
	cp.running.Store(true)
	cp.wg.Add(1)
	go cp.readerLoop(port)
	cp.SetNormal()
	return nil
}

// Reset stops the reader goroutine and closes the port.
func (cp *ControlPanel) Reset() {
	cp.log.Info("Resetting ControlPanel component.")
	cp.SetError()
	cp.running.Store(false)

	cp.mu.Lock()
	port := cp.port
	cp.port = nil
	cp.mu.Unlock()

	if port != nil {
		_ = port.Close()
	}
	cp.wg.Wait()
}

func (cp *ControlPanel) readerLoop(port serial.Port) {
	defer cp.wg.Done()

	terminator := byte('\n')
	if len(cp.cfg.LineTerminator) == 1 {
		terminator = cp.cfg.LineTerminator[0]
	}

	scanner := bufio.NewScanner(port)
	scanner.Split(splitOn(terminator))
	for cp.running.Load() {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				cp.log.Error(err, "ControlPanel communication read failed")
				cp.SetError()
				cp.running.Store(false)
			}
			return
		}
		line := sanitizeLine(scanner.Text())
		if line == "" {
			continue
		}
		cp.processLine(line)
	}
}

func splitOn(terminator byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if i := bytes.IndexByte(data, terminator); i >= 0 {
			return i + 1, data[:i], nil
		}
		if atEOF && len(data) > 0 {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

func sanitizeLine(line string) string {
	return strings.Trim(line, "\r\n\x00")
}

// processLine parses "x0 y0 b0 x1 y1 b1 x2 y2 b2" and updates every
// channel's baseline/moving-average/debounce state.
func (cp *ControlPanel) processLine(line string) {
	tokens := strings.Fields(line)
	if len(tokens) != 3*nChannels {
		cp.log.Warn("ControlPanel malformed line (expected %d fields): %q", 3*nChannels, line)
		return
	}

	var xRaw, yRaw [nChannels]float64
	var b [nChannels]bool
	for i := 0; i < nChannels; i++ {
		xv, err1 := strconv.Atoi(tokens[3*i])
		yv, err2 := strconv.Atoi(tokens[3*i+1])
		bv, err3 := strconv.Atoi(tokens[3*i+2])
		if err1 != nil || err2 != nil || err3 != nil {
			cp.log.Warn("ControlPanel invalid numeric format in line: %q", line)
			return
		}
		if xv < 0 || xv > 1023 || yv < 0 || yv > 1023 || (bv != 0 && bv != 1) {
			cp.log.Warn("ControlPanel invalid values in line: %q", line)
			return
		}
		xRaw[i], yRaw[i] = float64(xv), float64(yv)
		b[i] = bv == 1
	}

	if !cp.baselineReady {
		for i := 0; i < nChannels; i++ {
			cp.state[i].baselineXAcc += xRaw[i]
			cp.state[i].baselineYAcc += yRaw[i]
		}
		cp.baselineCount++
		if cp.baselineCount >= cp.baselineSamples {
			for i := 0; i < nChannels; i++ {
				cp.state[i].baselineX = cp.state[i].baselineXAcc / float64(cp.baselineCount)
				cp.state[i].baselineY = cp.state[i].baselineYAcc / float64(cp.baselineCount)
			}
			cp.baselineReady = true
			cp.log.Info("ControlPanel baseline ready after %d samples.", cp.baselineCount)
		}
	}

	for i := 0; i < nChannels; i++ {
		st := &cp.state[i]
		st.xWindow = append(st.xWindow, xRaw[i])
		st.xWindowSum += xRaw[i]
		if len(st.xWindow) > cp.movingAverageDepth {
			st.xWindowSum -= st.xWindow[0]
			st.xWindow = st.xWindow[1:]
		}

		st.yWindow = append(st.yWindow, yRaw[i])
		st.yWindowSum += yRaw[i]
		if len(st.yWindow) > cp.movingAverageDepth {
			st.yWindowSum -= st.yWindow[0]
			st.yWindow = st.yWindow[1:]
		}

		xFiltered := st.xWindowSum / float64(len(st.xWindow))
		yFiltered := st.yWindowSum / float64(len(st.yWindow))

		var xOut, yOut float64
		if cp.baselineReady {
			xOut = clipToUnitRange((xFiltered - st.baselineX) / 512.0)
			yOut = clipToUnitRange((yFiltered - st.baselineY) / 512.0)
		}

		if b[i] == st.bStable {
			st.bPending = st.bStable
			st.bPendingCount = 0
		} else {
			if b[i] == st.bPending {
				st.bPendingCount++
			} else {
				st.bPending = b[i]
				st.bPendingCount = 1
			}
			if st.bPendingCount >= cp.buttonDebounceSamples {
				st.bStable = st.bPending
				st.bPendingCount = 0
			}
		}

		cp.cells[i].store(xOut, yOut, st.bStable)
	}
}

func clipToUnitRange(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func (cp *ControlPanel) resetSignalProcessingState() {
	for i := range cp.state {
		cp.state[i] = channelState{baselineX: 512, baselineY: 512}
		cp.cells[i].store(0, 0, false)
	}
	cp.baselineCount = 0
	cp.baselineReady = false
}

// Joystick returns arm's most recent debounced reading, satisfying
// status.JoystickSource. Arm is used directly as the channel index:
// ArmLeft=0, ArmRight=1, ArmGantry=2, matching the wire protocol's
// fixed x0/y0/b0 .. x2/y2/b2 field order.
func (cp *ControlPanel) Joystick(arm types.Arm) types.JoystickStatus {
	i := int(arm)
	if i < 0 || i >= nChannels {
		return types.JoystickStatus{}
	}
	x, y, b := cp.cells[i].load()
	return types.JoystickStatus{X: x, Y: y, Btn: b}
}
