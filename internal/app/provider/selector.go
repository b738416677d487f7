package provider

import (
	"xrpl_control_room/internal/app/port"
	"xrpl_control_room/internal/domain/entity"
)

type dataSourceSelector struct {
	live port.DataSource
	demo port.DataSource
}

// NewDataSourceSelector routes the demo provider to demo and everything else to live.
func NewDataSourceSelector(live, demo port.DataSource) port.DataSourceSelector {
	return &dataSourceSelector{live: live, demo: demo}
}

func (s *dataSourceSelector) ForProvider(p entity.Provider) port.DataSource {
	if p == entity.ProviderDemo {
		return s.demo
	}
	return s.live
}
