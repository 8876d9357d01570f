package overpass

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-cli/internal/snapshot"
)

var qlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escape makes s safe inside a double-quoted Overpass QL string.
func escape(s string) string {
	return qlEscaper.Replace(s)
}

// WebsiteQuery matches named elements at a postcode that carry a website.
func WebsiteQuery(name, postcode string) string {
	n, pc := escape(name), escape(postcode)
	return fmt.Sprintf(`[out:json][timeout:25];
(
  nwr["name"="%[1]s"]["addr:postcode"="%[2]s"]["website"];
  nwr["name"="%[1]s"]["addr:postcode"="%[2]s"]["contact:website"];
);
out center;`, n, pc)
}

// FuzzyWebsiteQuery is WebsiteQuery with a case-insensitive name regex.
func FuzzyWebsiteQuery(name, postcode string) string {
	n, pc := escape(regexp.QuoteMeta(name)), escape(postcode)
	return fmt.Sprintf(`[out:json][timeout:25];
(
  nwr["name"~"%[1]s",i]["addr:postcode"="%[2]s"]["website"];
  nwr["name"~"%[1]s",i]["addr:postcode"="%[2]s"]["contact:website"];
);
out center;`, n, pc)
}

// RegionQuery lists drinking venues and hotels with a bar in a county-level
// administrative area.
func RegionQuery(area string) string {
	a := escape(area)
	return fmt.Sprintf(`[out:json][timeout:180];
area["name"="%[1]s"]["admin_level"="6"]->.region;
(
  nwr["amenity"~"^(pub|bar|biergarten)$"](area.region);
  nwr["tourism"="hotel"]["bar"="yes"](area.region);
);
out center;`, a)
}

// Website returns the element's website tag, falling back to contact:website.
func (e Element) Website() string {
	if w := e.Tags["website"]; w != "" {
		return w
	}
	return e.Tags["contact:website"]
}

// FindWebsite looks up a venue's website by exact then fuzzy name at the
// given postcode. It returns "" with a nil error when the queries completed
// without a match.
func (c *Client) FindWebsite(ctx context.Context, name, postcode string) (string, error) {
	if name == "" || postcode == "" {
		return "", eris.New("overpass: name and postcode are required")
	}

	for _, q := range []string{WebsiteQuery(name, postcode), FuzzyWebsiteQuery(name, postcode)} {
		resp, err := c.Query(ctx, q)
		if err != nil {
			return "", err
		}
		for _, el := range resp.Elements {
			if w := el.Website(); w != "" {
				return w, nil
			}
		}
	}
	return "", nil
}

// RegionVenues downloads every drinking venue in the area as snapshot rows.
func (c *Client) RegionVenues(ctx context.Context, area string) ([]snapshot.Venue, error) {
	resp, err := c.Query(ctx, RegionQuery(area))
	if err != nil {
		return nil, eris.Wrapf(err, "overpass: region venues %s", area)
	}

	venues := make([]snapshot.Venue, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}
		lat, lon := el.Position()
		amenity := el.Tags["amenity"]
		if amenity == "" {
			amenity = el.Tags["tourism"]
		}
		venues = append(venues, snapshot.Venue{
			Name:     name,
			Website:  el.Website(),
			Lat:      snapshot.Coord(lat),
			Lon:      snapshot.Coord(lon),
			Postcode: el.Tags["addr:postcode"],
			Address:  address(el.Tags),
			Amenity:  amenity,
			Source:   "osm",
		})
	}
	return venues, nil
}

func address(tags map[string]string) string {
	var parts []string
	street := strings.TrimSpace(tags["addr:housenumber"] + " " + tags["addr:street"])
	for _, p := range []string{street, tags["addr:city"]} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
