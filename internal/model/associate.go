package model

// Associate links country and capital in both directions.
//
// The association is one-to-one: any capital previously held by country,
// and any country previously holding capital, is unlinked first so that
// every reference stays mutually consistent. Nil arguments are ignored.
func Associate(country *Country, capital *Capital) {
	if country == nil || capital == nil {
		return
	}

	if old := country.Capital; old != nil && old != capital {
		old.Country = nil
		old.CountryID = 0
	}
	if prev := capital.Country; prev != nil && prev != country {
		prev.Capital = nil
	}

	country.Capital = capital
	capital.Country = country
	capital.CountryID = country.ID
}

// Dissociate removes capital's link to its country, on both sides.
func Dissociate(capital *Capital) {
	if capital == nil {
		return
	}
	if c := capital.Country; c != nil && c.Capital == capital {
		c.Capital = nil
	}
	capital.Country = nil
	capital.CountryID = 0
}

// Linked reports whether country and capital reference each other.
func Linked(country *Country, capital *Capital) bool {
	if country == nil || capital == nil {
		return false
	}
	return country.Capital == capital && capital.Country == country
}
