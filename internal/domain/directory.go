package domain

// Office is an organizational unit offering one or more services.
type Office struct {
	ID     string
	Name   string
	Code   string
	Active bool
}

// Service is a category of work offered by an office.
type Service struct {
	ID       string
	OfficeID string
	Name     string
	Code     string
	Active   bool
}

// ServiceSnapshot is the today status breakdown for one service.
type ServiceSnapshot struct {
	Service Service
	Counts  StatusCounts
}

// OfficeSnapshot groups the service snapshots of one office.
type OfficeSnapshot struct {
	Office   Office
	Services []ServiceSnapshot
}
