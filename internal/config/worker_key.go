package config

type WorkerKeyStruct struct {
	PersistAttemptsQueue string
	PersistCanvasQueue   string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAttemptsQueue: "persist_attempts_queue",
	PersistCanvasQueue:   "persist_canvas_queue",
}
