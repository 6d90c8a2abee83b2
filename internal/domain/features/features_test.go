package features_test

import (
	"math"
	"testing"

	"github.com/okian/resonance/internal/domain/features"
	"github.com/okian/resonance/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVectorize(t *testing.T) {
	Convey("Given an empty metrics record", t, func() {
		v := features.Vectorize(model.MetricsRecord{})

		Convey("Then every field should take its default", func() {
			So(v[features.SpotifyFollowersLog], ShouldEqual, 0)
			So(v[features.NetWorthLog], ShouldEqual, 0)
			So(v[features.Popularity], ShouldEqual, 5)
			So(v[features.Energy], ShouldEqual, 0.7)
			So(v[features.Danceability], ShouldEqual, 0.6)
			So(v[features.GenreMainstream], ShouldEqual, 0.5)
			So(v[features.GenreDiversity], ShouldEqual, 0)
			So(v[features.TierScore], ShouldEqual, 0)
			So(v[features.ChartPerformance], ShouldEqual, 0.5)
			So(v[features.EngagementRate], ShouldEqual, 0.05)
			So(v[features.LyricSentiment], ShouldEqual, 0.5)
		})
	})

	Convey("Given a populated record", t, func() {
		rec := model.MetricsRecord{
			SpotifyFollowers:       model.Float(1_000_000),
			YouTubeSubscribers:     model.Float(10_000),
			InstagramFollowers:     model.Float(100),
			Popularity:             model.Float(80),
			NetWorthMillions:       model.Float(100),
			MonthlyStreamsMillions: model.Float(10),
			Energy:                 model.Float(0.9),
			Genres:                 []string{"Dance Pop", "electro house", "Hip Hop"},
			TierScore:              model.Float(180),
			ChartPerformance:       model.Float(75),
			EngagementRate:         model.Float(4.5),
			LyricComplexity:        model.Float(20),
		}
		v := features.Vectorize(rec)

		Convey("Then count-like fields should be log10 scaled", func() {
			So(v[features.SpotifyFollowersLog], ShouldAlmostEqual, 6, 1e-9)
			So(v[features.YouTubeSubscribersLog], ShouldAlmostEqual, 4, 1e-9)
			So(v[features.InstagramFollowersLog], ShouldAlmostEqual, 2, 1e-9)
			So(v[features.NetWorthLog], ShouldAlmostEqual, 2, 1e-9)
			So(v[features.MonthlyStreamsLog], ShouldAlmostEqual, 1, 1e-9)
		})

		Convey("Then ratio-like fields should be normalised", func() {
			So(v[features.Popularity], ShouldAlmostEqual, 8, 1e-9)
			So(v[features.TierScore], ShouldAlmostEqual, 5, 1e-9)
			So(v[features.ChartPerformance], ShouldAlmostEqual, 0.75, 1e-9)
			So(v[features.EngagementRate], ShouldAlmostEqual, 0.045, 1e-9)
			So(v[features.LyricComplexity], ShouldAlmostEqual, 0.2, 1e-9)
		})

		Convey("Then genre scores should follow the vocabulary", func() {
			So(v[features.GenreMainstream], ShouldAlmostEqual, 2.0/3.0, 1e-9)
			So(v[features.GenreDiversity], ShouldAlmostEqual, 0.6, 1e-9)
		})
	})

	Convey("Given hostile inputs", t, func() {
		rec := model.MetricsRecord{
			SpotifyFollowers: model.Float(math.Inf(1)),
			Popularity:       model.Float(math.NaN()),
			Energy:           model.Float(3),
			TierScore:        model.Float(10_000),
			NetWorthMillions: model.Float(-5),
			Genres:           []string{"a", "b", "c", "d", "e", "f", "g"},
		}
		v := features.Vectorize(rec)

		Convey("Then every element should be finite and within [0,10]", func() {
			for _, x := range v {
				So(math.IsNaN(x) || math.IsInf(x, 0), ShouldBeFalse)
				So(x, ShouldBeGreaterThanOrEqualTo, 0)
				So(x, ShouldBeLessThanOrEqualTo, features.MaxValue)
			}
			So(v[features.Popularity], ShouldEqual, 5)
			So(v[features.Energy], ShouldEqual, 1)
			So(v[features.TierScore], ShouldEqual, features.MaxValue)
			So(v[features.GenreDiversity], ShouldEqual, 1)
			So(v[features.GenreMainstream], ShouldEqual, 0)
		})
	})

	Convey("Given the same record twice", t, func() {
		rec := model.MetricsRecord{SpotifyFollowers: model.Float(42_000), Genres: []string{"indie rock"}}

		Convey("Then vectorization should be deterministic", func() {
			So(features.Vectorize(rec), ShouldResemble, features.Vectorize(rec))
		})
	})
}

func TestNamesAndMap(t *testing.T) {
	Convey("Given the mainstream genre vocabulary", t, func() {
		Convey("Then it should be the documented closed list", func() {
			So(features.MainstreamKeywords, ShouldResemble, []string{
				"pop", "rock", "hip hop", "hip-hop", "rap", "r&b", "country",
				"edm", "dance", "latin", "k-pop", "reggaeton", "indie pop",
			})
		})

		Convey("Then matching should ignore case and accept either hip hop spelling", func() {
			So(features.MainstreamScore([]string{"Indie Pop", "Hip-Hop", "jazz", "ambient"}), ShouldEqual, 0.5)
			So(features.MainstreamScore([]string{"HIP HOP"}), ShouldEqual, 1.0)
			So(features.MainstreamScore([]string{"jazz"}), ShouldEqual, 0.0)
			So(features.MainstreamScore(nil), ShouldEqual, features.Defaults.GenreMainstream)
		})
	})

	Convey("Given the feature name table", t, func() {
		Convey("Then names should be unique and complete", func() {
			seen := map[string]bool{}
			for _, n := range features.Names {
				So(n, ShouldNotBeEmpty)
				So(seen[n], ShouldBeFalse)
				seen[n] = true
			}
			So(len(seen), ShouldEqual, model.NumFeatures)
		})

		Convey("Then Map should key the vector by name", func() {
			v := features.Vectorize(model.MetricsRecord{Popularity: model.Float(90)})
			m := features.Map(v)
			So(len(m), ShouldEqual, model.NumFeatures)
			So(m["popularity"], ShouldAlmostEqual, 9, 1e-9)
		})
	})
}
