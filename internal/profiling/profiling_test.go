package profiling

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTrackAccumulates(t *testing.T) {
	Reset()
	for i := 0; i < 3; i++ {
		stop := Track("stage.a")
		time.Sleep(time.Millisecond)
		stop()
	}
	Track("stage.b")()

	ss := Snapshot()
	require.Len(t, ss, 2)
	assert.Equal(t, "stage.a", ss[0].Name)
	assert.Equal(t, 3, ss[0].Calls)
	assert.GreaterOrEqual(t, ss[0].Total, 3*time.Millisecond)

	top := TopN(1)
	assert.True(t, strings.HasPrefix(top, "stage.a:"), top)
	assert.True(t, strings.HasSuffix(top, "ms"), top)

	Report(zap.NewNop())

	Reset()
	assert.Empty(t, Snapshot())
	assert.Equal(t, "", TopN(5))
}
