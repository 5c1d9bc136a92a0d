package domain

// CampaignRow is one normalized campaign-performance record. Count fields
// coerce to 0 when the source cell is unparseable; rate fields follow the
// percentage parsing rule ("95.5%" -> 95.5).
type CampaignRow struct {
	Name         string  `json:"name"`
	Sent         int64   `json:"sent"`
	Delivered    int64   `json:"delivered"`
	Clicked      int64   `json:"clicked"`
	DeliveryRate float64 `json:"delivery_rate"`
	CTR          float64 `json:"ctr"`
}
