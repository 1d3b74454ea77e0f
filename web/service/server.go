package service

import (
	"time"

	"github.com/greenpoints/gp-ui/database/model"
	"github.com/greenpoints/gp-ui/logger"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Status is the system and program snapshot shown on the admin dashboard.
type Status struct {
	T        time.Time `json:"-"`
	Cpu      float64   `json:"cpu"`
	CpuCores int       `json:"cpuCores"`
	Mem      struct {
		Current uint64 `json:"current"`
		Total   uint64 `json:"total"`
	} `json:"mem"`
	Uptime uint64    `json:"uptime"`
	Loads  []float64 `json:"loads"`

	Program struct {
		Users   int `json:"users"`
		Bottles int `json:"bottles"`
		Points  int `json:"points"`
	} `json:"program"`
}

// ServerService reports host metrics plus program totals derived from the
// profile store.
type ServerService struct {
	profileService *ProfileService
	rankingService *RankingService
}

func NewServerService(profileService *ProfileService) *ServerService {
	return &ServerService{
		profileService: profileService,
		rankingService: &RankingService{},
	}
}

func (s *ServerService) GetStatus() *Status {
	now := time.Now()
	status := &Status{T: now}

	percents, err := cpu.Percent(0, false)
	if err != nil {
		logger.Warning("get cpu percent failed:", err)
	} else if len(percents) > 0 {
		status.Cpu = percents[0]
	}

	if cores, err := cpu.Counts(false); err != nil {
		logger.Warning("get cpu cores count failed:", err)
	} else {
		status.CpuCores = cores
	}

	if upTime, err := host.Uptime(); err != nil {
		logger.Warning("get uptime failed:", err)
	} else {
		status.Uptime = upTime
	}

	if memInfo, err := mem.VirtualMemory(); err != nil {
		logger.Warning("get virtual memory failed:", err)
	} else {
		status.Mem.Current = memInfo.Used
		status.Mem.Total = memInfo.Total
	}

	if avgState, err := load.Avg(); err != nil {
		logger.Warning("get load avg failed:", err)
	} else {
		status.Loads = []float64{avgState.Load1, avgState.Load5, avgState.Load15}
	}

	profiles := s.profileService.AllOfRole(model.RoleUser)
	status.Program.Users = len(profiles)
	status.Program.Bottles = s.rankingService.AggregateBottles(profiles)
	for _, profile := range profiles {
		status.Program.Points += profile.Points
	}

	return status
}
