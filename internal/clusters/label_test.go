package clusters

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/jonathan/energy-insights/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stats(baseloads ...float64) []types.ClusterStats {
	out := make([]types.ClusterStats, len(baseloads))
	for i, b := range baseloads {
		out[i] = types.ClusterStats{ClusterID: i, AvgBaseload: b}
	}
	return out
}

func TestLabel_SingleClusterIsHighBaseload(t *testing.T) {
	labels := Label(stats(42))
	assert.Equal(t, map[int]Category{0: HighBaseload}, labels)
}

func TestLabel_TwoClustersHaveNoStandard(t *testing.T) {
	labels := Label(stats(10, 90))
	assert.Equal(t, Efficient, labels[0])
	assert.Equal(t, HighBaseload, labels[1])
}

func TestLabel_ManyClusters(t *testing.T) {
	labels := Label(stats(50, 200, 5, 75))
	assert.Equal(t, HighBaseload, labels[1])
	assert.Equal(t, Efficient, labels[2])
	assert.Equal(t, Standard, labels[0])
	assert.Equal(t, Standard, labels[3])
}

func TestLabel_Empty(t *testing.T) {
	assert.Empty(t, Label(nil))
}

func TestLabel_TiesPreferLowerClusterID(t *testing.T) {
	labels := Label(stats(30, 30, 30))
	assert.Equal(t, HighBaseload, labels[0])
	assert.Equal(t, Standard, labels[1])
	assert.Equal(t, Efficient, labels[2])
}

func TestLabel_ExactlyOneHighAndOneEfficient(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for n := 2; n <= 12; n++ {
		t.Run(fmt.Sprintf("%d clusters", n), func(t *testing.T) {
			in := make([]types.ClusterStats, n)
			for i := range in {
				in[i] = types.ClusterStats{ClusterID: i * 3, AvgBaseload: rng.Float64() * 1000}
			}

			labels := Label(in)
			require.Len(t, labels, n)

			counts := map[Category]int{}
			maxID, minID := in[0].ClusterID, in[0].ClusterID
			maxV, minV := in[0].AvgBaseload, in[0].AvgBaseload
			for _, s := range in {
				counts[labels[s.ClusterID]]++
				if s.AvgBaseload > maxV {
					maxV, maxID = s.AvgBaseload, s.ClusterID
				}
				if s.AvgBaseload < minV {
					minV, minID = s.AvgBaseload, s.ClusterID
				}
			}
			assert.Equal(t, 1, counts[HighBaseload])
			assert.Equal(t, 1, counts[Efficient])
			assert.Equal(t, n-2, counts[Standard])
			assert.Equal(t, HighBaseload, labels[maxID])
			assert.Equal(t, Efficient, labels[minID])
		})
	}
}

func TestLabel_DoesNotReorderInput(t *testing.T) {
	in := stats(1, 3, 2)
	_ = Label(in)
	assert.Equal(t, 0, in[0].ClusterID)
	assert.Equal(t, 1, in[1].ClusterID)
}

func TestLabelFor(t *testing.T) {
	s := stats(10, 90, 50)
	assert.Equal(t, HighBaseload, LabelFor(1, s))
	assert.Equal(t, Efficient, LabelFor(0, s))
	assert.Equal(t, Standard, LabelFor(2, s))
	assert.Equal(t, Standard, LabelFor(99, s), "unknown clusters fall back to standard")
}

func TestDescribe(t *testing.T) {
	d := Describe(HighBaseload)
	assert.Equal(t, "High Baseload (24/7 Operators)", d.Name)
	assert.Contains(t, d.Action, "energy audits")

	assert.Equal(t, "Efficient Buildings", Describe(Efficient).Name)
	assert.Equal(t, Describe(Standard), Describe(Category("unknown")))
}
