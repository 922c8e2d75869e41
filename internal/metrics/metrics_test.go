package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRender(t *testing.T) {
	before := testutil.ToFloat64(renders.WithLabelValues("row", ResultRejected))
	RecordRender("row", ResultRejected)
	RecordRender("row", ResultRejected)

	if got := testutil.ToFloat64(renders.WithLabelValues("row", ResultRejected)); got != before+2 {
		t.Errorf("renders = %v, want %v", got, before+2)
	}
}

func TestRecordTransmission(t *testing.T) {
	okBefore := testutil.ToFloat64(transmissions.WithLabelValues("test", ResultOK))
	errBefore := testutil.ToFloat64(transmissions.WithLabelValues("test", ResultError))

	RecordTransmission("test", nil)
	RecordTransmission("test", errors.New("bus"))

	if got := testutil.ToFloat64(transmissions.WithLabelValues("test", ResultOK)); got != okBefore+1 {
		t.Errorf("ok transmissions = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(transmissions.WithLabelValues("test", ResultError)); got != errBefore+1 {
		t.Errorf("failed transmissions = %v, want %v", got, errBefore+1)
	}
}

func TestGauges(t *testing.T) {
	SetSegmentState(1, 3)
	if got := testutil.ToFloat64(segmentState.WithLabelValues("1")); got != 3 {
		t.Errorf("segment_state = %v, want 3", got)
	}

	SetRow(2, 4, 55)
	if got := testutil.ToFloat64(rowFill.WithLabelValues("2")); got != 55 {
		t.Errorf("row_fill_percent = %v, want 55", got)
	}
	if got := testutil.ToFloat64(rowCategory.WithLabelValues("2")); got != 4 {
		t.Errorf("row_category = %v, want 4", got)
	}
}

func TestRecordPoll(t *testing.T) {
	before := testutil.ToFloat64(polls.WithLabelValues("unit", ResultError))
	RecordPoll("unit", time.Now(), errors.New("timeout"))
	if got := testutil.ToFloat64(polls.WithLabelValues("unit", ResultError)); got != before+1 {
		t.Errorf("failed polls = %v, want %v", got, before+1)
	}

	RecordPoll("unit", time.Now(), nil)
	if got := testutil.ToFloat64(lastSuccess.WithLabelValues("unit")); got == 0 {
		t.Error("expected last success timestamp to be set")
	}
}
