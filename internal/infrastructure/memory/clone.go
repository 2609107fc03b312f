package memory

import (
	"time"

	"github.com/jhoicas/weight-dispute-api/internal/domain/entity"
	"github.com/jhoicas/weight-dispute-api/pkg/weight"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneDims(d *weight.Dimensions) *weight.Dimensions {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneShipment(s *entity.Shipment) *entity.Shipment {
	if s == nil {
		return nil
	}
	c := *s
	c.Items = append([]entity.ShipmentItem(nil), s.Items...)
	c.Weights.Observations = make([]entity.WeightObservation, len(s.Weights.Observations))
	for i, o := range s.Weights.Observations {
		o.Dimensions = cloneDims(o.Dimensions)
		c.Weights.Observations[i] = o
	}
	c.PackedAt = cloneTime(s.PackedAt)
	return &c
}

func cloneDispute(d *entity.WeightDispute) *entity.WeightDispute {
	if d == nil {
		return nil
	}
	c := *d
	c.Evidence = nil
	c.SubmissionClaimedAt = cloneTime(d.SubmissionClaimedAt)
	c.SubmittedToCourierAt = cloneTime(d.SubmittedToCourierAt)
	if d.Resolution != nil {
		r := *d.Resolution
		c.Resolution = &r
	}
	return &c
}

func cloneSettlement(s *entity.Settlement) *entity.Settlement {
	if s == nil {
		return nil
	}
	c := *s
	c.AppliedAt = cloneTime(s.AppliedAt)
	return &c
}

func cloneSKU(m *entity.SKUWeightMaster) *entity.SKUWeightMaster {
	if m == nil {
		return nil
	}
	c := *m
	if m.Freeze != nil {
		f := *m.Freeze
		f.ExpiresAt = cloneTime(m.Freeze.ExpiresAt)
		c.Freeze = &f
	}
	c.LastSampleAt = cloneTime(m.LastSampleAt)
	return &c
}

func cloneRun(r *entity.ReconciliationRun) *entity.ReconciliationRun {
	if r == nil {
		return nil
	}
	c := *r
	c.ReportRefs = make(map[string]string, len(r.ReportRefs))
	for k, v := range r.ReportRefs {
		c.ReportRefs[k] = v
	}
	return &c
}
