package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MediaPipeDetector implements Detector using a Python MediaPipe
// holistic subprocess that tracks hand and body pose landmarks in
// the same frame.
type MediaPipeDetector struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	if findHolisticScript() == "" {
		return nil, fmt.Errorf("holistic_service.py not found")
	}
	return &MediaPipeDetector{config: config}, nil
}

// Detect analyzes a frame and returns the detected landmark frame.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*LandmarkFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Hand  *jsonLandmarkSet `json:"hand"`
		Pose  *jsonLandmarkSet `json:"pose"`
		Score float64          `json:"score"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	lf := &LandmarkFrame{
		Timestamp:        time.Now().UnixMilli(),
		SourceConfidence: response.Score,
	}

	if response.Hand != nil {
		if len(response.Hand.Points) != NumHandLandmarks {
			return nil, fmt.Errorf("%w: hand has %d landmarks, want %d",
				ErrMalformedFrame, len(response.Hand.Points), NumHandLandmarks)
		}
		lf.Hand = &HandLandmarks{
			Points: response.Hand.toLandmarks(),
			Score:  response.Hand.Score,
		}
	}

	if response.Pose != nil {
		if len(response.Pose.Points) != NumPoseLandmarks {
			return nil, fmt.Errorf("%w: pose has %d landmarks, want %d",
				ErrMalformedFrame, len(response.Pose.Points), NumPoseLandmarks)
		}
		lf.Pose = &PoseLandmarks{Points: response.Pose.toLandmarks()}
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return lf, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findHolisticScript()
	if scriptPath == "" {
		return fmt.Errorf("holistic_service.py not found")
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, scriptPath)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start holistic service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(30*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findHolisticScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/holistic_service.py",
		"../scripts/holistic_service.py",
		filepath.Join(execDir, "scripts/holistic_service.py"),
		filepath.Join(os.Getenv("HOME"), ".handrom/scripts/holistic_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".handrom/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonLandmarkSet represents one landmark set in the JSON wire format
// produced by the Python service.
type jsonLandmarkSet struct {
	Points []struct {
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Z          float64 `json:"z"`
		Visibility float64 `json:"visibility"`
	} `json:"points"`
	Score float64 `json:"score"`
}

func (s *jsonLandmarkSet) toLandmarks() []Landmark {
	points := make([]Landmark, len(s.Points))
	for i, p := range s.Points {
		points[i] = Landmark{X: p.X, Y: p.Y, Z: p.Z, Visibility: p.Visibility}
	}
	return points
}
