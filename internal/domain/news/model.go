package news

import (
	"time"

	"github.com/openchs/openchs-server/internal/reconcile"
)

// News is an announcement published to field workers.
type News struct {
	reconcile.Entity
	Title         string
	Content       string
	ContentHTML   string
	HeroImage     string
	PublishedDate *time.Time
}

func (n *News) DisplayName() string        { return n.Title }
func (n *News) SetDisplayName(name string) { n.Title = name }
