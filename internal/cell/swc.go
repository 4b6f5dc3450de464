package cell

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SWC structure identifiers.
const (
	SWCSoma     = 1
	SWCAxon     = 2
	SWCDendrite = 3
	SWCApical   = 4
)

// SWCSample is one line of an SWC file: a point with a radius, joined to
// its parent sample. The root has parent -1.
type SWCSample struct {
	ID     int
	Tag    int
	X      float64
	Y      float64
	Z      float64
	Radius float64
	Parent int
}

func (s SWCSample) distance(o SWCSample) float64 {
	return math.Sqrt((s.X-o.X)*(s.X-o.X) + (s.Y-o.Y)*(s.Y-o.Y) + (s.Z-o.Z)*(s.Z-o.Z))
}

// ParseSWC reads SWC samples. Lines starting with # and blank lines are
// skipped. Every parent must be declared before its children and only the
// first sample may be a root.
func ParseSWC(r io.Reader) ([]SWCSample, error) {
	var samples []SWCSample
	seen := make(map[int]bool)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 7 {
			return nil, fmt.Errorf("%w: line %d: expected 7 fields, got %d", ErrInvalidSWC, line, len(fields))
		}

		var s SWCSample
		ints := []*int{&s.ID, &s.Tag, &s.Parent}
		for i, f := range []string{fields[0], fields[1], fields[6]} {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSWC, line, err)
			}
			*ints[i] = v
		}
		floats := []*float64{&s.X, &s.Y, &s.Z, &s.Radius}
		for i, f := range fields[2:6] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSWC, line, err)
			}
			*floats[i] = v
		}

		switch {
		case seen[s.ID]:
			return nil, fmt.Errorf("%w: line %d: duplicate sample %d", ErrInvalidSWC, line, s.ID)
		case s.Parent == -1 && len(samples) > 0:
			return nil, fmt.Errorf("%w: line %d: sample %d is a second root", ErrInvalidSWC, line, s.ID)
		case s.Parent != -1 && !seen[s.Parent]:
			return nil, fmt.Errorf("%w: line %d: parent %d of sample %d not declared before it", ErrInvalidSWC, line, s.Parent, s.ID)
		}
		seen[s.ID] = true
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSWC, err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidSWC)
	}
	return samples, nil
}

// NewFromSWC builds a cell from samples in the order ParseSWC returns them.
//
// The root must be a soma sample; it becomes a spherical soma of the root's
// radius and every other soma sample must hang off it. Cables are unbranched
// runs of samples with the same tag, numbered breadth first from the soma.
// A cable leaving the soma starts at the sphere's surface.
func NewFromSWC(samples []SWCSample) (*Cell, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidSWC)
	}
	root := samples[0]
	if root.Parent != -1 || root.Tag != SWCSoma {
		return nil, fmt.Errorf("%w: root sample %d must be a soma sample with parent -1", ErrInvalidSWC, root.ID)
	}

	index := make(map[int]int, len(samples))
	for i, s := range samples {
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate sample %d", ErrInvalidSWC, s.ID)
		}
		index[s.ID] = i
	}

	children := make([][]int, len(samples))
	soma := make([]bool, len(samples))
	soma[0] = true
	for i, s := range samples[1:] {
		i++
		p, ok := index[s.Parent]
		if !ok || p >= i {
			return nil, fmt.Errorf("%w: parent %d of sample %d not declared before it", ErrInvalidSWC, s.Parent, s.ID)
		}
		if s.Tag == SWCSoma {
			if !soma[p] {
				return nil, fmt.Errorf("%w: soma sample %d attached to non-soma sample %d", ErrInvalidSWC, s.ID, s.Parent)
			}
			soma[i] = true
			continue
		}
		children[p] = append(children[p], i)
	}
	for _, ch := range children {
		sort.Slice(ch, func(a, b int) bool { return samples[ch[a]].ID < samples[ch[b]].ID })
	}

	c := New()
	if _, err := c.AddSoma(root.Radius); err != nil {
		return nil, err
	}

	type start struct {
		sample  int
		segment int
	}
	var queue []start
	for i := range samples {
		if soma[i] {
			for _, ch := range children[i] {
				queue = append(queue, start{ch, 0})
			}
		}
	}

	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]

		first := samples[st.sample]
		parent := samples[index[first.Parent]]
		r0 := parent.Radius
		length := first.distance(parent)
		if soma[index[first.Parent]] {
			r0 = first.Radius
			length = math.Max(first.distance(root)-root.Radius, 0)
		}

		cur := st.sample
		for len(children[cur]) == 1 && samples[children[cur][0]].Tag == first.Tag {
			next := children[cur][0]
			length += samples[next].distance(samples[cur])
			cur = next
		}

		kind := Dendrite
		if first.Tag == SWCAxon {
			kind = Axon
		}
		if _, err := c.AddCable(st.segment, kind, r0, samples[cur].Radius, length); err != nil {
			return nil, fmt.Errorf("cable from sample %d to %d: %w", first.ID, samples[cur].ID, err)
		}
		seg := c.NumSegments() - 1
		for _, ch := range children[cur] {
			queue = append(queue, start{ch, seg})
		}
	}
	return c, nil
}

// LoadSWC reads the SWC file at path and builds its cell. Mechanisms and
// compartment counts are left to the caller.
func LoadSWC(path string) (*Cell, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSWC, err)
	}
	defer f.Close()

	samples, err := ParseSWC(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewFromSWC(samples)
}
