package health

// Status is the liveness status reported by /health.
type Status string

const (
	// Healthy means a model is loaded and predictions are served.
	Healthy Status = "healthy"
	// Unhealthy means the process runs but has no model.
	Unhealthy Status = "unhealthy"
)

// Messages returned with each status.
const (
	MessageLoaded    = "Model loaded successfully and app is running"
	MessageNotLoaded = "Model not loaded but app is running"
)

// Report is the health outcome. Model is "<name>:<version>" when loaded.
type Report struct {
	Status  Status
	Message string
	Model   string
}

// Service reports liveness from the in-memory model state. It never touches the network.
type Service struct {
	model ModelStatus
}

// New creates a Service.
func New(model ModelStatus) *Service {
	return &Service{model: model}
}

// Check reports whether the model is loaded.
func (s *Service) Check() Report {
	meta, ok := s.model.Metadata()
	if !ok {
		return Report{Status: Unhealthy, Message: MessageNotLoaded}
	}
	return Report{Status: Healthy, Message: MessageLoaded, Model: meta.Name + ":" + meta.Version}
}
