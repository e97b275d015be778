package catalog

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAppWithCatalogHandler(b Backend, s ImageSearcher) *fiber.App {
	app := fiber.New()
	NewHandler(NewService(b, s, quietLogger())).RegisterPublicRoutes(app)
	return app
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestCatalogRoutes(t *testing.T) {
	app := makeAppWithCatalogHandler(newFakeBackend(), nil)

	res, err := app.Test(httptest.NewRequest("GET", "/api/v1/products?sort=price-low-high&occasion=Sinh%20nh%E1%BA%ADt", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	body := decode(t, res.Body)
	page := body["page"].(map[string]interface{})
	assert.Equal(t, float64(2), page["total"])
	items := page["items"].([]interface{})
	assert.Equal(t, "hoa-hong-do", items[0].(map[string]interface{})["slug"])

	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/products/slug/lan-ho-diep", nil))
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/products/slug/nope", nil))
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/products/abc", nil))
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/products/2/reviews", nil))
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Len(t, decode(t, res.Body)["reviews"], 1)

	res, _ = app.Test(httptest.NewRequest("GET", "/api/v1/facets", nil))
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestSearchByImageRoute(t *testing.T) {
	searcher := fakeSearcher{result: ImageSearchResult{FlowerType: "rose"}, flowers: map[string]string{}}
	app := makeAppWithCatalogHandler(newFakeBackend(), searcher)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "rose.jpg")
	require.NoError(t, err)
	fw.Write([]byte("jpeg-bytes"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/search/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	body := decode(t, res.Body)
	notes := body["notifications"].([]interface{})
	require.Len(t, notes, 1)
	assert.Equal(t, "No similar products were found", notes[0].(map[string]interface{})["message"])

	res, _ = app.Test(httptest.NewRequest("POST", "/api/v1/search/image", nil))
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}
