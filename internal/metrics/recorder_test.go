package metrics

import "time"

// testRecorder is a minimal in-memory Recorder for package tests that need to
// assert which metrics a component reported; no current test uses it.
type testRecorder struct {
	recordsEmitted    int
	commitsSkipped    map[SkipReason]int
	filesSkipped      map[SkipReason]int
	patchDurations    int
	contextDurations  int
	contextMinerPaths int
	runInProgress     bool
}

func newTestRecorder() *testRecorder {
	return &testRecorder{commitsSkipped: map[SkipReason]int{}, filesSkipped: map[SkipReason]int{}}
}

func (t *testRecorder) IncRecordsEmitted() { t.recordsEmitted++ }
func (t *testRecorder) IncCommitsSkipped(reason SkipReason) {
	t.commitsSkipped[reason]++
}
func (t *testRecorder) IncFilesSkipped(reason SkipReason) {
	t.filesSkipped[reason]++
}
func (t *testRecorder) ObservePatchDuration(time.Duration)           { t.patchDurations++ }
func (t *testRecorder) ObserveContextAnalysisDuration(time.Duration) { t.contextDurations++ }
func (t *testRecorder) IncContextMinerPaths(n int)                  { t.contextMinerPaths += n }
func (t *testRecorder) SetRunInProgress(inProgress bool)            { t.runInProgress = inProgress }
