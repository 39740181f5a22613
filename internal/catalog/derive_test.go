package catalog_test

import (
	"errors"
	"testing"

	"github.com/iliyamo/skillswap/internal/catalog"
	"github.com/iliyamo/skillswap/internal/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sample() []model.SkillOffering {
	return []model.SkillOffering{
		{ID: 1, Name: "Guitar", ProviderName: "Alex", Category: "Music", Rating: 4.5},
		{ID: 2, Name: "Yoga", ProviderName: "Bea", Category: "Fitness", Rating: 4.8},
	}
}

func wider() []model.SkillOffering {
	return []model.SkillOffering{
		{ID: 1, Name: "Guitar", ProviderName: "Alex", Category: "Music", Rating: 4.5},
		{ID: 2, Name: "Yoga", ProviderName: "Bea", Category: "Fitness", Rating: 4.8},
		{ID: 3, Name: "Songwriting", ProviderName: "Alex", Category: "Music", Rating: 4.9},
		{ID: 4, Name: "Spanish", ProviderName: "Dan", Category: "Language", Rating: 4.2},
		{ID: 5, Name: "Pilates", ProviderName: "Bea", Category: "Fitness", Rating: 4.1},
		{ID: 6, Name: "French", ProviderName: "Cleo", Category: "Language", Rating: 4.8},
	}
}

func ids(in []model.SkillOffering) []int {
	out := make([]int, 0, len(in))
	for _, o := range in {
		out = append(out, o.ID)
	}
	return out
}

func TestFilterCatalog(t *testing.T) {
	Convey("Given a catalog of offerings", t, func() {
		offerings := wider()

		Convey("When the query is empty and the category is All", func() {
			got := catalog.FilterCatalog(offerings, "", catalog.AllCategories)

			Convey("Then the catalog comes back unchanged", func() {
				So(got, ShouldResemble, offerings)
			})
		})

		Convey("When the query matches an offering name case-insensitively", func() {
			got := catalog.FilterCatalog(sample(), "gui", catalog.AllCategories)

			Convey("Then only that offering is returned", func() {
				So(ids(got), ShouldResemble, []int{1})
			})
		})

		Convey("When the query matches a provider name", func() {
			got := catalog.FilterCatalog(offerings, "ALEX", catalog.AllCategories)

			Convey("Then every offering of that provider is returned in catalog order", func() {
				So(ids(got), ShouldResemble, []int{1, 3})
			})
		})

		Convey("When a category is selected", func() {
			got := catalog.FilterCatalog(offerings, "", "Language")

			Convey("Then only offerings in that category are returned", func() {
				So(ids(got), ShouldResemble, []int{4, 6})
			})
		})

		Convey("When category and query are combined", func() {
			got := catalog.FilterCatalog(offerings, "bea", "Music")

			Convey("Then both conditions must hold", func() {
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When nothing matches the query", func() {
			got := catalog.FilterCatalog(offerings, "underwater basket weaving", catalog.AllCategories)

			Convey("Then an empty, non-nil slice is returned", func() {
				So(got, ShouldNotBeNil)
				So(got, ShouldBeEmpty)
			})
		})
	})
}

func TestDeriveCategories(t *testing.T) {
	Convey("Given offerings with repeated categories", t, func() {
		got := catalog.DeriveCategories(wider())

		Convey("Then All comes first followed by distinct categories in first-seen order", func() {
			So(got, ShouldResemble, []string{"All", "Music", "Fitness", "Language"})
		})
	})

	Convey("Given an empty catalog", t, func() {
		got := catalog.DeriveCategories(nil)

		Convey("Then only the wildcard is returned", func() {
			So(got, ShouldResemble, []string{"All"})
		})
	})
}

func TestTopProviders(t *testing.T) {
	Convey("Given offerings from several providers", t, func() {
		offerings := wider()

		Convey("When asking for the default three", func() {
			got := catalog.TopProviders(offerings, catalog.DefaultTopProviders)

			Convey("Then each provider appears once with its best offering", func() {
				So(len(got), ShouldEqual, 3)
				So(got[0], ShouldResemble, model.ProviderSummary{ProviderName: "Alex", BestOfferingTitle: "Songwriting", BestRating: 4.9})
			})

			Convey("Then equal ratings are ordered by provider name", func() {
				So(got[1].ProviderName, ShouldEqual, "Bea")
				So(got[2].ProviderName, ShouldEqual, "Cleo")
			})

			Convey("Then ratings are in descending order", func() {
				for i := 1; i < len(got); i++ {
					So(got[i-1].BestRating, ShouldBeGreaterThanOrEqualTo, got[i].BestRating)
				}
			})
		})

		Convey("When n exceeds the number of providers", func() {
			got := catalog.TopProviders(offerings, 10)

			Convey("Then every provider is returned exactly once", func() {
				So(len(got), ShouldEqual, 4)
				seen := map[string]bool{}
				for _, s := range got {
					So(seen[s.ProviderName], ShouldBeFalse)
					seen[s.ProviderName] = true
				}
			})
		})

		Convey("When n is zero", func() {
			Convey("Then nothing is returned", func() {
				So(catalog.TopProviders(offerings, 0), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a provider with two offerings sharing the top rating", t, func() {
		offerings := []model.SkillOffering{
			{ID: 1, Name: "First", ProviderName: "Alex", Rating: 4.7},
			{ID: 2, Name: "Second", ProviderName: "Alex", Rating: 4.7},
		}

		Convey("Then the first one in catalog order is kept", func() {
			got := catalog.TopProviders(offerings, 3)
			So(got, ShouldHaveLength, 1)
			So(got[0].BestOfferingTitle, ShouldEqual, "First")
		})
	})
}

func TestFindByID(t *testing.T) {
	Convey("Given the sample catalog", t, func() {
		offerings := sample()

		Convey("When the id exists", func() {
			o, err := catalog.FindByID(offerings, "2")

			Convey("Then the offering is returned", func() {
				So(err, ShouldBeNil)
				So(o.Name, ShouldEqual, "Yoga")
			})
		})

		Convey("When the id is unknown or not numeric", func() {
			for _, id := range []string{"999", "abc", ""} {
				_, err := catalog.FindByID(offerings, id)
				So(errors.Is(err, catalog.ErrNotFound), ShouldBeTrue)
			}
		})
	})
}
