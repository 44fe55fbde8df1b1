package palette

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestDefaultPalette(t *testing.T) {
	p := Default()
	want := []Color{"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF", "#00FFFF"}
	got := p.Colors()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("color[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if p.Name != "primaries" {
		t.Errorf("name = %q", p.Name)
	}
}

func TestColorsReturnsCopy(t *testing.T) {
	p := Default()
	c := p.Colors()
	c[0] = "#123456"
	if p.Colors()[0] != "#FF0000" {
		t.Fatal("mutating Colors() result changed the palette")
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Color
		ok   bool
	}{
		{"#ff0000", "#FF0000", true},
		{"00ff00", "#00FF00", true},
		{"  #AbCdEf ", "#ABCDEF", true},
		{"#FFF", "", false},
		{"#GG0000", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("Parse(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidColor) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidColor", tc.in, err)
		}
	}
}

func TestNewRejects(t *testing.T) {
	if _, err := New("dup", []string{"#FF0000", "#ff0000"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate: err = %v", err)
	}
	if _, err := New("one", []string{"#FF0000"}); !errors.Is(err, ErrTooFewColors) {
		t.Errorf("single: err = %v", err)
	}
	if _, err := New("bad", []string{"#FF0000", "blue"}); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("invalid: err = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	doc := "name: mono\ncolors:\n  - \"#000000\"\n  - \"#ffffff\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "mono" || p.Len() != 2 || !p.Contains("#FFFFFF") {
		t.Errorf("unexpected palette %+v", p.Colors())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) returned nil error")
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 6 {
		t.Errorf("len = %d, want 6", p.Len())
	}
}

func sortedStrings[T ~string](xs []T) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = string(x)
	}
	sort.Strings(out)
	return out
}

func TestShuffleIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, in := range [][]Color{
		{},
		{"#FF0000"},
		Default().Colors(),
	} {
		orig := append([]Color(nil), in...)
		for trial := 0; trial < 50; trial++ {
			out := Shuffle(in, rng)
			if len(out) != len(in) {
				t.Fatalf("len = %d, want %d", len(out), len(in))
			}
			a, b := sortedStrings(out), sortedStrings(in)
			for i := range a {
				if a[i] != b[i] {
					t.Fatalf("shuffle %v is not a permutation of %v", out, in)
				}
			}
		}
		for i := range orig {
			if in[i] != orig[i] {
				t.Fatalf("input modified: %v, was %v", in, orig)
			}
		}
	}
}

func TestShuffleDistribution(t *testing.T) {
	const trials = 60000
	in := []int{0, 1, 2, 3, 4, 5}
	rng := rand.New(rand.NewPCG(42, 7))

	var counts [6][6]int // counts[element][position]
	for i := 0; i < trials; i++ {
		for pos, v := range Shuffle(in, rng) {
			counts[v][pos]++
		}
	}
	want := float64(trials) / 6
	for v := range counts {
		for pos, n := range counts[v] {
			if dev := (float64(n) - want) / want; dev > 0.05 || dev < -0.05 {
				t.Errorf("element %d at position %d: %d times, want ~%.0f", v, pos, n, want)
			}
		}
	}
}

func TestCryptoRandRange(t *testing.T) {
	var r CryptoRand
	for i := 0; i < 200; i++ {
		if v := r.IntN(6); v < 0 || v >= 6 {
			t.Fatalf("IntN(6) = %d", v)
		}
	}
}
