package pipeline

const (
	StageLoad       = "load"
	StageResearch   = "research"
	StageCategorize = "categorize"
	StagePrioritize = "prioritize"
	StageSummarize  = "summarize"
	StagePersist    = "persist"
	StageFallback   = "fallback"
)

const (
	StatusStarted  = "started"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// StageEvent reports pipeline progress. Count is the number of records
// entering the stage on start and leaving it on finish.
type StageEvent struct {
	Stage   string `json:"stage"`
	Status  string `json:"status"`
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

func emitter(fn func(StageEvent)) func(StageEvent) {
	if fn == nil {
		return func(StageEvent) {}
	}
	return fn
}
