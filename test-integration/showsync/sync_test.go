package integration

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/stacklok/showsync/internal/api/v1"
	"github.com/stacklok/showsync/internal/catalog"
	"github.com/stacklok/showsync/internal/status"
	"github.com/stacklok/showsync/test-integration/showsync/helpers"
)

const (
	fireflyID  = 78874
	farscapeID = 70522
)

var _ = Describe("Incremental sync", Label("sync"), func() {
	var (
		provider     *helpers.FakeProvider
		serverHelper *helpers.ServerTestHelper
	)

	seriesName := func(id int64) string {
		var detail v1.SeriesDetailResponse
		Expect(serverHelper.GetJSON("/v1/series/"+itoa(id), &detail)).To(Equal(http.StatusOK))
		return detail.Name
	}

	episodeNames := func(id int64) []string {
		var detail v1.SeriesDetailResponse
		Expect(serverHelper.GetJSON("/v1/series/"+itoa(id), &detail)).To(Equal(http.StatusOK))
		names := make([]string, 0, len(detail.Episodes))
		for _, ep := range detail.Episodes {
			names = append(names, ep.Name)
		}
		return names
	}

	BeforeEach(func() {
		provider = helpers.NewFakeProvider()
		provider.PutSeries(helpers.FakeSeries{
			ID: fireflyID, Name: "Firefly", Network: "FOX",
			Episodes: []helpers.FakeEpisode{
				{Season: 1, Number: 1, Name: "Serenity", AirDate: "2002-12-20"},
				{Season: 1, Number: 2, Name: "The Train Job", AirDate: "2002-09-20"},
			},
			Upcoming: []helpers.FakeEpisode{
				{Season: 1, Number: 3, Name: "Bushwhacked", AirDate: "2002-12-27"},
			},
		})
		provider.PutSeries(helpers.FakeSeries{
			ID: farscapeID, Name: "Farscape", Network: "Sci-Fi",
			Episodes: []helpers.FakeEpisode{
				{Season: 1, Number: 1, Name: "Premiere", AirDate: "1999-03-19"},
			},
		})

		cfg := helpers.NewConfig(provider, GinkgoT().TempDir())
		helpers.SeedCatalog(ctx, cfg,
			catalog.Series{ID: fireflyID, Name: "firefly (stale)"},
			catalog.Series{ID: farscapeID, Name: "farscape (stale)"},
		)

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		provider.Close()
	})

	It("serves the seeded catalog", func() {
		var list v1.SeriesListResponse
		Expect(serverHelper.GetJSON("/v1/series", &list)).To(Equal(http.StatusOK))
		Expect(list.Series).To(HaveLen(2))
		Expect(seriesName(fireflyID)).To(Equal("firefly (stale)"))
	})

	It("refreshes a single series on demand", func() {
		var resp v1.SyncResponse
		Expect(serverHelper.PostJSON("/v1/series/"+itoa(fireflyID)+"/sync?force=true", &resp)).
			To(Equal(http.StatusOK))
		Expect(resp.Updated).To(BeTrue())
		Expect(resp.Forced).To(BeTrue())
		Expect(resp.Failed).To(BeFalse())

		Expect(seriesName(fireflyID)).To(Equal("Firefly"))
		// Both provider episodes plus the one only the supplemental source lists
		Expect(episodeNames(fireflyID)).To(ConsistOf("Serenity", "The Train Job", "Bushwhacked"))

		By("leaving other series alone")
		Expect(seriesName(farscapeID)).To(Equal("farscape (stale)"))

		By("reporting the pass status")
		var st v1.StatusResponse
		Expect(serverHelper.GetJSON("/v1/status", &st)).To(Equal(http.StatusOK))
		Expect(st.Passes).To(HaveKey(status.ModeSeries))
		Expect(st.Passes[status.ModeSeries].Phase).To(Equal(status.PhaseIdle))
		Expect(st.Passes[status.ModeSeries].SeriesID).To(BeEquivalentTo(fireflyID))
	})

	It("returns 404 for a series outside the catalog", func() {
		Expect(serverHelper.PostJSON("/v1/series/424242/sync", nil)).To(Equal(http.StatusNotFound))
	})

	It("establishes a baseline, then applies only the reported changes", func() {
		baseline, syncErr := serverHelper.RunFullSync()
		Expect(syncErr).To(BeNil())
		Expect(baseline.WatermarkBefore).To(BeZero())
		Expect(baseline.WatermarkAfter).To(BeNumerically(">", 0))
		Expect(baseline.SeriesUpdated).To(BeZero())
		// Without a watermark there is nothing to ask the provider
		Expect(provider.SinceQueries()).To(BeEmpty())

		provider.RenameSeries(farscapeID, "Farscape: The Peacekeeper Wars")
		provider.RenameSeries(fireflyID, "Firefly (renamed, unreported)")
		provider.SetChanges(baseline.WatermarkAfter+600, []int64{farscapeID}, nil)

		next, syncErr := serverHelper.RunFullSync()
		Expect(syncErr).To(BeNil())
		Expect(next.WatermarkBefore).To(Equal(baseline.WatermarkAfter))
		Expect(next.WatermarkAfter).To(Equal(baseline.WatermarkAfter + 600))
		Expect(next.SeriesChecked).To(Equal(2))
		Expect(next.SeriesUpdated).To(Equal(1))
		Expect(provider.SinceQueries()).To(Equal([]int64{baseline.WatermarkAfter}))

		Expect(seriesName(farscapeID)).To(Equal("Farscape: The Peacekeeper Wars"))
		Expect(seriesName(fireflyID)).To(Equal("firefly (stale)"))
	})

	It("refreshes only the changed episodes", func() {
		var resp v1.SyncResponse
		Expect(serverHelper.PostJSON("/v1/series/"+itoa(farscapeID)+"/sync?force=true", &resp)).
			To(Equal(http.StatusOK))

		baseline, syncErr := serverHelper.RunFullSync()
		Expect(syncErr).To(BeNil())

		provider.RenameEpisode(farscapeID, 1, 1, "Premiere (Director's Cut)")
		provider.SetChanges(baseline.WatermarkAfter+60, []int64{farscapeID}, map[int64][][2]int{farscapeID: {{1, 1}}})

		result, syncErr := serverHelper.RunFullSync()
		Expect(syncErr).To(BeNil())
		Expect(result.EpisodesUpdated).To(BeNumerically(">=", 1))
		Expect(episodeNames(farscapeID)).To(ConsistOf("Premiere (Director's Cut)"))
	})

	It("skips the pass while the provider is down and the watermark is fresh", func() {
		baseline, syncErr := serverHelper.RunFullSync()
		Expect(syncErr).To(BeNil())

		provider.SetDown(true)
		result, syncErr := serverHelper.RunFullSync()
		Expect(syncErr).To(BeNil())
		Expect(result.Skipped).To(BeTrue())
		Expect(result.WatermarkAfter).To(Equal(baseline.WatermarkAfter))

		var st v1.StatusResponse
		Expect(serverHelper.GetJSON("/v1/status", &st)).To(Equal(http.StatusOK))
		Expect(st.Passes[status.ModeFull].Phase).To(Equal(status.PhaseSkipped))
	})
})
