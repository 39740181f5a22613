package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iliyamo/skillswap/internal/catalog"
	"github.com/iliyamo/skillswap/internal/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadBundled(t *testing.T) {
	Convey("Given the bundled fixtures", t, func() {
		c, err := catalog.Load("")

		Convey("Then the catalog loads with offerings and events", func() {
			So(err, ShouldBeNil)
			So(c.Len(), ShouldBeGreaterThan, 0)
			So(c.Events(), ShouldNotBeEmpty)
			So(c.Categories()[0], ShouldEqual, catalog.AllCategories)
		})

		Convey("Then accessors hand out copies", func() {
			offerings := c.Offerings()
			offerings[0].Name = "mutated"
			So(c.Offerings()[0].Name, ShouldNotEqual, "mutated")
		})
	})
}

func TestLoadDirectory(t *testing.T) {
	Convey("Given a fixture directory", t, func() {
		dir := t.TempDir()
		skills := `[{"skillId":7,"skillName":"Chess","providerName":"Kim","category":"Games","price":5,"rating":4,"slotsAvailable":1}]`
		So(os.WriteFile(filepath.Join(dir, "skills.json"), []byte(skills), 0o644), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "events.json"), []byte(`[]`), 0o644), ShouldBeNil)

		c, err := catalog.Load(dir)

		Convey("Then the directory overrides the bundled data", func() {
			So(err, ShouldBeNil)
			So(c.Len(), ShouldEqual, 1)
			So(c.Categories(), ShouldResemble, []string{"All", "Games"})
		})
	})

	Convey("Given a directory with malformed JSON", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "skills.json"), []byte(`{`), 0o644), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "events.json"), []byte(`[]`), 0o644), ShouldBeNil)

		_, err := catalog.Load(dir)

		Convey("Then loading fails as an invalid fixture", func() {
			So(errors.Is(err, catalog.ErrInvalidFixture), ShouldBeTrue)
		})
	})
}

func TestNewValidation(t *testing.T) {
	Convey("Given malformed offerings", t, func() {
		cases := []struct {
			name      string
			offerings []model.SkillOffering
		}{
			{"duplicate id", []model.SkillOffering{{ID: 1}, {ID: 1}}},
			{"negative price", []model.SkillOffering{{ID: 1, Price: -1}}},
			{"negative rating", []model.SkillOffering{{ID: 1, Rating: -0.5}}},
			{"negative slots", []model.SkillOffering{{ID: 1, SlotsAvailable: -2}}},
		}
		for _, tc := range cases {
			_, err := catalog.New(tc.offerings, nil)
			Convey("Then "+tc.name+" is rejected", func() {
				So(errors.Is(err, catalog.ErrInvalidFixture), ShouldBeTrue)
			})
		}
	})
}
