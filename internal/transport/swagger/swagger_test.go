package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/frahmantamala/shop-backoffice/internal/transport/swagger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSwagger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Swagger Suite")
}

const docPath = "../../../api/openapi.yml"

var _ = Describe("OpenAPI document", func() {
	It("loads and validates the bundled document", func() {
		doc, err := swagger.Load(context.Background(), docPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Paths.Find("/wishlists/items/{itemID}/move")).NotTo(BeNil())
		Expect(doc.Paths.Find("/admin/orders/{id}/status")).NotTo(BeNil())
	})

	It("rejects an invalid document", func() {
		path := filepath.Join(GinkgoT().TempDir(), "broken.yml")
		Expect(os.WriteFile(path, []byte("openapi: 3.0.3\ninfo:\n  title: broken\npaths: {}\n"), 0o600)).To(Succeed())

		_, err := swagger.Load(context.Background(), path)
		Expect(err).To(HaveOccurred())
	})

	It("serves the raw document", func() {
		rec := httptest.NewRecorder()
		swagger.DocHandler(docPath).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, swagger.DocPath, nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("openapi: 3.0.3"))
	})
})
