package health

// Service reports liveness and the configured completion provider.
type Service struct {
	provider string
	model    string
}

// NewService constructs a new health service.
func NewService(provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Status returns a simple health payload.
func (s *Service) Status() Status {
	if s == nil {
		return Status{OK: true}
	}
	return Status{OK: true, Provider: s.provider, Model: s.model}
}
