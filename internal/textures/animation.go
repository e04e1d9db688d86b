package textures

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// TickDuration is one game tick, the unit of frametime.
const TickDuration = 50 * time.Millisecond

// Frame is one entry of an animation sequence. Time is in ticks.
type Frame struct {
	Index int
	Time  int
}

// Animation is the "animation" section of a texture's .mcmeta file.
type Animation struct {
	Interpolate bool
	FrameTime   int
	Frames      []Frame
}

type animationDoc struct {
	Animation *struct {
		Interpolate bool              `json:"interpolate"`
		FrameTime   *int              `json:"frametime"`
		Frames      []json.RawMessage `json:"frames"`
	} `json:"animation"`
}

// ParseAnimation decodes a .mcmeta document. Frames may be plain indices
// or {index, time} objects; frametime defaults to one tick.
func ParseAnimation(data []byte) (*Animation, error) {
	var doc animationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse mcmeta")
	}
	if doc.Animation == nil {
		return nil, errors.New("mcmeta has no animation section")
	}

	a := &Animation{Interpolate: doc.Animation.Interpolate, FrameTime: 1}
	if doc.Animation.FrameTime != nil && *doc.Animation.FrameTime > 0 {
		a.FrameTime = *doc.Animation.FrameTime
	}

	for i, raw := range doc.Animation.Frames {
		var idx int
		if err := json.Unmarshal(raw, &idx); err == nil {
			a.Frames = append(a.Frames, Frame{Index: idx, Time: a.FrameTime})
			continue
		}
		var obj struct {
			Index int  `json:"index"`
			Time  *int `json:"time"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
		f := Frame{Index: obj.Index, Time: a.FrameTime}
		if obj.Time != nil && *obj.Time > 0 {
			f.Time = *obj.Time
		}
		a.Frames = append(a.Frames, f)
	}
	return a, nil
}

// FrameSpriteName is the atlas name under which frame i of a texture is packed.
func FrameSpriteName(name string, i int) string {
	if i == 0 {
		return name
	}
	return name + "@" + strconv.Itoa(i)
}

// AnimatedTexture steps through an animation's frames over time.
type AnimatedTexture struct {
	Name       string
	FrameCount int

	anim    *Animation
	current int
	elapsed time.Duration
}

func NewAnimatedTexture(name string, anim *Animation, frameCount int) *AnimatedTexture {
	return &AnimatedTexture{
		Name:       name,
		FrameCount: max(frameCount, 1),
		anim:       anim,
	}
}

func (t *AnimatedTexture) sequenceLen() int {
	if len(t.anim.Frames) > 0 {
		return len(t.anim.Frames)
	}
	return t.FrameCount
}

func (t *AnimatedTexture) frameDuration(step int) time.Duration {
	ticks := t.anim.FrameTime
	if step < len(t.anim.Frames) {
		ticks = t.anim.Frames[step].Time
	}
	return time.Duration(max(ticks, 1)) * TickDuration
}

// Update advances the animation by dt.
func (t *AnimatedTexture) Update(dt time.Duration) {
	t.elapsed += dt
	for d := t.frameDuration(t.current); t.elapsed >= d; d = t.frameDuration(t.current) {
		t.elapsed -= d
		t.current = (t.current + 1) % t.sequenceLen()
	}
}

// Step returns the position in the frame sequence.
func (t *AnimatedTexture) Step() int {
	return t.current
}

// Frame returns the sprite frame index currently shown.
func (t *AnimatedTexture) Frame() int {
	idx := t.current
	if t.current < len(t.anim.Frames) {
		idx = t.anim.Frames[t.current].Index
	}
	if idx < 0 || idx >= t.FrameCount {
		idx = 0
	}
	return idx
}

// CurrentSprite returns the atlas name of the frame currently shown.
func (t *AnimatedTexture) CurrentSprite() string {
	return FrameSpriteName(t.Name, t.Frame())
}

func (t *AnimatedTexture) Reset() {
	t.current = 0
	t.elapsed = 0
}
