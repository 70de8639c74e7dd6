package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DirectoriesSpawned prometheus.Counter
	MembersAdded       prometheus.Counter
	MembersRemoved     prometheus.Counter
	RolesUpdated       prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		DirectoriesSpawned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vprove_directories_spawned_total",
			Help: "Total number of tenant directories spawned",
		}),
		MembersAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vprove_directory_members_added_total",
			Help: "Total number of members registered across directories",
		}),
		MembersRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vprove_directory_members_removed_total",
			Help: "Total number of members removed across directories",
		}),
		RolesUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vprove_directory_roles_updated_total",
			Help: "Total number of member role updates across directories",
		}),
	}
}

func (m *Metrics) IncrementDirectoriesSpawned() { m.DirectoriesSpawned.Inc() }
func (m *Metrics) IncrementMembersAdded()       { m.MembersAdded.Inc() }
func (m *Metrics) IncrementMembersRemoved()     { m.MembersRemoved.Inc() }
func (m *Metrics) IncrementRolesUpdated()       { m.RolesUpdated.Inc() }
