package pipeline

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pharmwatch/pharmwatch-backend/internal/ingest"
	"github.com/pharmwatch/pharmwatch-backend/internal/portal"
	"github.com/pharmwatch/pharmwatch-backend/pkg/config"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db"
	"github.com/pharmwatch/pharmwatch-backend/pkg/db/models"
	"github.com/pharmwatch/pharmwatch-backend/pkg/logger"
	"github.com/pharmwatch/pharmwatch-backend/pkg/migrate"
)

const priceFeedXML = `<?xml version="1.0" encoding="utf-8"?>
<OrderXml><Envelope><Header><Details>
<Line>
  <ItemCode>7290000000001</ItemCode>
  <ItemName>שמפו לילדים</ItemName>
  <ItemPrice>12,50</ItemPrice>
  <Quantity>250</Quantity>
  <UnitQty>גרם</UnitQty>
  <ManufacturerName>Acme</ManufacturerName>
</Line>
<Line>
  <ItemCode>7290000000002</ItemCode>
  <ItemName>מרכך</ItemName>
  <ItemPrice>8.90</ItemPrice>
</Line>
</Details></Header></Envelope></OrderXml>`

const promoFeedXML = `<?xml version="1.0" encoding="utf-8"?>
<OrderXml><Envelope><Header><Details>
<Line>
  <ItemCode>7290000000001</ItemCode>
  <PromotionId>P42</PromotionId>
  <RewardType>club</RewardType>
  <IsGiftItem>0</IsGiftItem>
  <AllowMultipleDiscounts>1</AllowMultipleDiscounts>
</Line>
<Line>
  <ItemCode>7290000000001</ItemCode>
  <PromotionId>P42</PromotionId>
  <RewardType>coupon</RewardType>
  <IsGiftItem>1</IsGiftItem>
  <AllowMultipleDiscounts>0</AllowMultipleDiscounts>
</Line>
</Details></Header></Envelope></OrderXml>`

const (
	priceArchiveName = "PriceFull7290172900007-072-202508280700.gz"
	promoArchiveName = "PromoFull7290172900007-072-202508280915.gz"
)

func gzBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func gridRow(name string) string {
	return fmt.Sprintf(`<tr><td><a href="/Download/%s">הורדה</a></td><td>סופר-פארם קרית אתא</td><td>x</td><td>28/08/2025</td><td>%s</td></tr>`, name, name)
}

func fakePortal(t *testing.T) *httptest.Server {
	t.Helper()
	archives := map[string][]byte{
		priceArchiveName: gzBytes(t, priceFeedXML),
		promoArchiveName: gzBytes(t, promoFeedXML),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/Download/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/Download/"):]
		data, ok := archives[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		var row string
		switch r.URL.Query().Get("Category-equals") {
		case "PriceFull":
			row = gridRow(priceArchiveName)
		case "PromoFull":
			row = gridRow(promoArchiveName)
		}
		fmt.Fprintf(w, `<html><body><table class="mvc-grid"><tbody>%s</tbody></table></body></html>`, row)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupRunner(t *testing.T, baseURL string) (*Runner, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, migrate.Up(context.Background(), sqlDB))

	cfg := &config.Config{}
	cfg.Portal = config.PortalConfig{
		BaseURL:         baseURL + "/",
		ListTimeout:     5 * time.Second,
		DownloadTimeout: 5 * time.Second,
		UserAgent:       "pharmwatch-fetch/test",
		DataDir:         t.TempDir(),
		PageSize:        10,
	}
	cfg.Ingest.ChainID = "7290172900007"

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client := db.FromConn(conn)
	runner := NewRunner(
		portal.NewClient(cfg.Portal, logg),
		ingest.NewService(client, logg, nil),
		client,
		cfg,
		logg,
	)
	return runner, conn
}

func TestRunFullDay(t *testing.T) {
	srv := fakePortal(t)
	runner, conn := setupRunner(t, srv.URL)

	res, err := runner.Run(context.Background(), Options{
		Branch:  "סופר-פארם קרית אתא",
		StoreID: "072",
		Date:    "2025-08-28",
	})
	require.NoError(t, err)

	assert.Equal(t, priceArchiveName, res.PriceArchive)
	assert.Equal(t, promoArchiveName, res.PromoArchive)
	assert.Equal(t, 2, res.Counts.RowsRead)
	assert.Equal(t, 2, res.Counts.ObservationsAppended)

	_, err = os.Stat(res.CanonicalPath)
	require.NoError(t, err, "canonical day file must be written")

	var cp models.CurrentPrice
	require.NoError(t, conn.First(&cp, "store_id = ? AND barcode = ?", "072", "7290000000001").Error)
	assert.Equal(t, int64(1250), cp.PriceMinor)
	assert.True(t, cp.HasPromo)
	assert.Equal(t, "club,coupon", cp.RewardTypes)

	var obs models.PriceObservation
	require.NoError(t, conn.First(&obs, "store_id = ? AND barcode = ?", "072", "7290000000001").Error)
	// the price archive publish time becomes the batch observation time
	assert.True(t, obs.ObservedAt.UTC().Equal(time.Date(2025, 8, 28, 7, 0, 0, 0, time.UTC)), "observed_at = %v", obs.ObservedAt)

	var kinds []string
	require.NoError(t, conn.Model(&models.IngestedFile{}).Where("store_id = ?", "072").Order("kind").Pluck("kind", &kinds).Error)
	assert.Equal(t, []string{"merged", "prices", "promos"}, kinds)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	srv := fakePortal(t)
	runner, conn := setupRunner(t, srv.URL)

	opts := Options{Branch: "סופר-פארם קרית אתא", StoreID: "072", Date: "2025-08-28"}

	_, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)

	res, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Counts.ObservationsAppended)
	assert.Equal(t, 2, res.Counts.ObservationsDuplicate)

	var obsCount int64
	require.NoError(t, conn.Model(&models.PriceObservation{}).Count(&obsCount).Error)
	assert.Equal(t, int64(2), obsCount)
}

func TestRunFailsFastWithoutSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><table class="mvc-grid"><tbody></tbody></table></body></html>`)
	}))
	t.Cleanup(srv.Close)
	runner, conn := setupRunner(t, srv.URL)

	_, err := runner.Run(context.Background(), Options{Branch: "b", StoreID: "072", Date: "2025-08-28"})
	require.Error(t, err)

	var storeCount int64
	require.NoError(t, conn.Model(&models.Store{}).Count(&storeCount).Error)
	assert.Zero(t, storeCount)
}

func TestRunValidatesOptions(t *testing.T) {
	srv := fakePortal(t)
	runner, _ := setupRunner(t, srv.URL)

	_, err := runner.Run(context.Background(), Options{Branch: "b"})
	require.Error(t, err)
}
