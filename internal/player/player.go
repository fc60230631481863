package player

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const monitorInterval = 50 * time.Millisecond

// countingReader wraps the decoder and tracks how many PCM bytes oto has pulled.
type countingReader struct {
	reader io.Reader
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.mu.Unlock()
}

// output is the part of *oto.Player the Player drives.
type output interface {
	Play()
	Pause()
	SetVolume(volume float64)
}

// Options configures a Player.
type Options struct {
	// Skip is how far SkipForward and SkipBackward move.
	Skip   time.Duration
	Volume float64
}

// Player plays one audio file. It starts paused and signals on Finished
// each time playback runs off the end.
type Player struct {
	file        *os.File
	decoder     audioDecoder
	counter     *countingReader
	otoCtx      *oto.Context
	otoPlayer   output
	bytesPerSec int64
	frameSize   int64
	skip        time.Duration
	volume      float64
	paused      bool
	finished    chan struct{}
	stopMon     chan struct{}
	closeOnce   sync.Once
	cleanup     func()
	mu          sync.Mutex
}

var (
	globalOtoCtx *oto.Context
	otoFormat    [2]int // sample rate, channels
	otoMu        sync.Mutex
)

// initOto creates the process-wide oto context on first use. oto allows only
// one context, so later files must share its format.
func initOto(sampleRate, channels int) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if globalOtoCtx != nil {
		if otoFormat != [2]int{sampleRate, channels} {
			return nil, fmt.Errorf("audio format %d Hz/%d ch differs from the open device (%d Hz/%d ch)",
				sampleRate, channels, otoFormat[0], otoFormat[1])
		}
		return globalOtoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	globalOtoCtx = ctx
	otoFormat = [2]int{sampleRate, channels}
	return ctx, nil
}

// New opens path and prepares it for playback without starting it.
func New(path string, opts Options) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	ctx, err := initOto(dec.SampleRate(), dec.ChannelCount())
	if err != nil {
		f.Close()
		return nil, err
	}

	if opts.Volume <= 0 {
		opts.Volume = 0.8
	}
	frameSize := int64(dec.ChannelCount()) * 2

	p := &Player{
		file:        f,
		decoder:     dec,
		counter:     &countingReader{reader: dec},
		otoCtx:      ctx,
		bytesPerSec: int64(dec.SampleRate()) * frameSize,
		frameSize:   frameSize,
		skip:        opts.Skip,
		volume:      opts.Volume,
		paused:      true,
		finished:    make(chan struct{}, 1),
		stopMon:     make(chan struct{}),
		cleanup:     func() { f.Close() },
	}
	p.otoPlayer = ctx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(p.volume)

	go p.monitor()
	return p, nil
}

func (p *Player) monitor() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopMon:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		ended := !p.paused && p.counter.Pos() >= p.decoder.Length()
		if ended {
			p.paused = true
			if p.otoPlayer != nil {
				p.otoPlayer.Pause()
			}
		}
		p.mu.Unlock()

		if ended {
			select {
			case p.finished <- struct{}{}:
			default:
			}
		}
	}
}

// Finished delivers a value each time playback reaches the end of the track.
func (p *Player) Finished() <-chan struct{} {
	return p.finished
}

// PlayPause toggles between playing and paused.
func (p *Player) PlayPause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		if p.otoPlayer != nil {
			p.otoPlayer.Play()
		}
		p.paused = false
		return
	}
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
	p.paused = true
}

// Pause pauses playback; it is a no-op when already paused.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
	p.paused = true
}

// Playing reports whether audio is currently playing.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.paused
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	if p.bytesPerSec == 0 {
		return 0
	}
	return bytesToDuration(p.counter.Pos(), p.bytesPerSec)
}

// Length returns the total length of the track.
func (p *Player) Length() time.Duration {
	if p.bytesPerSec == 0 {
		return 0
	}
	return bytesToDuration(p.decoder.Length(), p.bytesPerSec)
}

// CurrentTime returns the playback position in seconds.
func (p *Player) CurrentTime() float64 { return p.Position().Seconds() }

// Duration returns the track length in seconds.
func (p *Player) Duration() float64 { return p.Length().Seconds() }

// SeekTo moves to fraction (0..1) of the track, keeping the play state.
func (p *Player) SeekTo(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	target := time.Duration(fraction * float64(p.Length()))
	_ = p.seek(func(time.Duration) time.Duration { return target })
}

// SkipForward moves ahead by the configured skip length.
func (p *Player) SkipForward() {
	_ = p.seek(func(cur time.Duration) time.Duration { return cur + p.skip })
}

// SkipBackward moves back by the configured skip length.
func (p *Player) SkipBackward() {
	_ = p.seek(func(cur time.Duration) time.Duration { return cur - p.skip })
}

// SeekToPosition jumps to an absolute position, keeping the play state.
func (p *Player) SeekToPosition(target time.Duration) error {
	return p.seek(func(time.Duration) time.Duration { return target })
}

func (p *Player) seek(target func(cur time.Duration) time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := bytesToDuration(p.counter.Pos(), p.bytesPerSec)
	pos := clampSeekByteOffset(target(cur), p.bytesPerSec, p.decoder.Length(), p.frameSize)
	if _, err := p.decoder.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to byte %d: %w", pos, err)
	}
	p.counter.SetPos(pos)

	// A fresh oto player drops whatever the old one had buffered.
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
	if p.otoCtx != nil {
		p.otoPlayer = p.otoCtx.NewPlayer(p.counter)
		p.otoPlayer.SetVolume(p.volume)
		if !p.paused {
			p.otoPlayer.Play()
		}
	}
	return nil
}

// clampSeekByteOffset converts target to a byte offset inside [0, total]
// aligned down to a whole sample frame.
func clampSeekByteOffset(target time.Duration, bytesPerSec, total, frameSize int64) int64 {
	pos := int64(target.Seconds() * float64(bytesPerSec))
	if pos < 0 {
		pos = 0
	}
	if pos > total {
		pos = total
	}
	if frameSize > 0 {
		pos -= pos % frameSize
	}
	return pos
}

func bytesToDuration(n, bytesPerSec int64) time.Duration {
	return time.Duration(float64(n) / float64(bytesPerSec) * float64(time.Second))
}

// Volume returns current volume (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// AdjustVolume changes the volume by delta, clamped to 0..1.
func (p *Player) AdjustVolume(delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.volume + delta
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.volume = v
	if p.otoPlayer != nil {
		p.otoPlayer.SetVolume(v)
	}
}

// Close stops playback and releases the file. Safe to call more than once.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		if p.stopMon != nil {
			close(p.stopMon)
		}
		p.Pause()
		if p.cleanup != nil {
			p.cleanup()
		}
	})
}
