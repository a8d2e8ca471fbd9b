package reports

import (
	"context"
	"database/sql"
	"iter"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/store/rows"
)

type HotspotMode string

const (
	HotspotModeDataOnly HotspotMode = "dataonly"
	HotspotModeFull     HotspotMode = "full"
	HotspotModeLight    HotspotMode = "light"
)

type HotspotStatus string

const (
	HotspotOnline  HotspotStatus = "online"
	HotspotOffline HotspotStatus = "offline"
)

type Hotspot struct {
	Address      string        `json:"address" csv:"address"`
	Mode         HotspotMode   `json:"mode" csv:"mode"`
	Owner        string        `json:"owner" csv:"owner"`
	Location     *string       `json:"location" csv:"location"`
	Name         string        `json:"name" csv:"name"`
	Online       HotspotStatus `json:"online" csv:"online"`
	Lat          *float64      `json:"lat" csv:"lat"`
	Lng          *float64      `json:"lng" csv:"lng"`
	ShortStreet  *string       `json:"short_street,omitempty" csv:"short_street"`
	ShortCity    *string       `json:"short_city,omitempty" csv:"short_city"`
	ShortCountry *string       `json:"short_country,omitempty" csv:"short_country"`
}

// hotspotsQuery lists hotspots added at or before the span's high block.
const hotspotsQuery = `
	select
		g.address,
		g.mode,
		g.owner,
		g.location,
		g.name,
		coalesce(s.online::text, 'offline') as online,
		l.short_street,
		l.short_city,
		l.short_country
	from gateway_inventory g
	left join locations l on g.location = l.location
	left join gateway_status s on s.address = g.address
	where g.first_block <= $1
	order by g.first_block desc, g.address
`

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func scanHotspot(s rows.Scanner) (Hotspot, error) {
	var (
		h                               Hotspot
		location, street, city, country sql.NullString
	)
	err := s.Scan(&h.Address, &h.Mode, &h.Owner, &location, &h.Name, &h.Online, &street, &city, &country)
	h.Location = nullable(location)
	h.ShortStreet = nullable(street)
	h.ShortCity = nullable(city)
	h.ShortCountry = nullable(country)
	return h, err
}

// Hotspots streams every hotspot known as of span.High, newest first.
func (s *store) Hotspots(ctx context.Context, span domain.BlockSpan) iter.Seq2[Hotspot, error] {
	return rows.Stream(ctx, s.db, scanHotspot, hotspotsQuery, span.High)
}
