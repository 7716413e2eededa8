package jobq

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFmtLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := &FmtLogger{out: &out, err: &errOut}

	l.Debugf("enqueued: id=%s", "a")
	l.Infof("starting")
	l.Warnf("job failed: id=%s", "b")
	l.Errorf("store down")

	require.Equal(t, "[DEBUG] enqueued: id=a\n[INFO]  starting\n", out.String())
	require.Equal(t, "[WARN]  job failed: id=b\n[ERROR] store down\n", errOut.String())
}

func TestFmtLogger_NoDebug(t *testing.T) {
	var out bytes.Buffer
	l := &FmtLogger{NoDebug: true, out: &out}

	l.Debugf("processed")
	l.Infof("stopping")
	require.Equal(t, "[INFO]  stopping\n", out.String())
}
