package hashid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum_KnownValues(t *testing.T) {
	// Values must stay bit-compatible with ids already stored in user
	// profiles, so they are pinned here.
	assert.Equal(t, uint32(0), Sum(""))
	assert.Equal(t, uint32(97), Sum("a"))
	assert.Equal(t, uint32(302508925), Sum("Inception"))
	assert.Equal(t, uint32(267107553), Sum("Đề Xuất Phim"))
}

func TestSum_Deterministic(t *testing.T) {
	inputs := []string{"", "Movie A", "Phim Lẻ Hay Nhất", "a longer title with spaces"}
	for _, input := range inputs {
		first := Sum(input)
		for i := 0; i < 100; i++ {
			assert.Equal(t, first, Sum(input), "hash must not vary across calls for %q", input)
		}
	}
}

func TestSum_DistinctTitlesRarelyCollide(t *testing.T) {
	titles := []string{"Inception", "Interstellar", "Tenet", "Dunkirk", "Memento", "Movie A", "Movie B"}
	seen := make(map[uint32]string)
	for _, title := range titles {
		sum := Sum(title)
		if prev, ok := seen[sum]; ok {
			t.Fatalf("collision between %q and %q", prev, title)
		}
		seen[sum] = title
	}
}
