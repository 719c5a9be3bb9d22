package jsonlwriter_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jonmartinstorm/slsnusern/internal/jsonlwriter"
	"github.com/jonmartinstorm/slsnusern/internal/models"
)

func TestJSONLWriter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "JSONLWriter Suite")
}

var _ = Describe("Writer", func() {
	It("skriver én gyldig JSON-post per linje", func() {
		path := filepath.Join(GinkgoT().TempDir(), "ut.jsonl")

		w, err := jsonlwriter.New(path)
		Expect(err).To(BeNil())

		ctx := context.Background()
		Expect(w.WriteRecord(ctx, &models.RepositoryRecord{Repository: "a/b", URL: "https://github.com/a/b"})).To(Succeed())
		Expect(w.WriteRecord(ctx, &models.RepositoryRecord{Repository: "c/d", URL: "https://github.com/c/d"})).To(Succeed())
		Expect(w.Close()).To(Succeed())

		f, err := os.Open(path)
		Expect(err).To(BeNil())
		defer f.Close()

		var repos []string
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var record models.RepositoryRecord
			Expect(json.Unmarshal(scanner.Bytes(), &record)).To(Succeed())
			repos = append(repos, record.Repository)
		}
		Expect(repos).To(Equal([]string{"a/b", "c/d"}))
	})

	It("feiler når utkatalogen ikke finnes", func() {
		_, err := jsonlwriter.New("/finnes/ikke/ut.jsonl")
		Expect(err).To(HaveOccurred())
	})
})
