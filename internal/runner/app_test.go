package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonmartinstorm/slsnusern/internal/config"
	"github.com/jonmartinstorm/slsnusern/internal/mocks"
	"github.com/jonmartinstorm/slsnusern/internal/models"
	"github.com/jonmartinstorm/slsnusern/internal/runner"
	"github.com/stretchr/testify/mock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRunner(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Runner Suite")
}

// writeURLFile lager en midlertidig URL-liste og returnerer stien.
func writeURLFile(lines string) string {
	dir := GinkgoT().TempDir()
	path := filepath.Join(dir, "repos.txt")
	Expect(os.WriteFile(path, []byte(lines), 0o600)).To(Succeed())
	return path
}

var _ = Describe("App.Run", func() {
	var (
		ctx       context.Context
		cfg       config.Config
		harvester *mocks.MockHarvester
		writer    *mocks.MockRecordWriter
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = config.Config{
			Token:       "fake-token",
			Parallelism: 1,
		}
		harvester = &mocks.MockHarvester{}
		writer = &mocks.MockRecordWriter{}
	})

	It("skriver én post per vellykket repo", func() {
		cfg.InputPath = writeURLFile("https://github.com/org/a\nhttps://github.com/org/b\n")

		recA := &models.RepositoryRecord{Repository: "org/a"}
		recB := &models.RepositoryRecord{Repository: "org/b"}
		harvester.On("ProcessRepo", mock.Anything, "https://github.com/org/a").Return(recA)
		harvester.On("ProcessRepo", mock.Anything, "https://github.com/org/b").Return(recB)
		writer.On("WriteRecord", mock.Anything, recA).Return(nil)
		writer.On("WriteRecord", mock.Anything, recB).Return(nil)

		app := runner.NewApp(cfg, harvester, writer)
		Expect(app.Run(ctx)).To(Succeed())

		harvester.AssertExpectations(GinkgoT())
		writer.AssertExpectations(GinkgoT())
	})

	It("hopper over repo som gir nil og fortsetter med resten", func() {
		cfg.InputPath = writeURLFile("https://github.com/org/borte\nhttps://github.com/org/her\n")

		rec := &models.RepositoryRecord{Repository: "org/her"}
		harvester.On("ProcessRepo", mock.Anything, "https://github.com/org/borte").Return(nil)
		harvester.On("ProcessRepo", mock.Anything, "https://github.com/org/her").Return(rec)
		writer.On("WriteRecord", mock.Anything, rec).Return(nil)

		app := runner.NewApp(cfg, harvester, writer)
		Expect(app.Run(ctx)).To(Succeed())

		writer.AssertNumberOfCalls(GinkgoT(), "WriteRecord", 1)
	})

	It("fortsetter selv om skriving feiler for ett repo", func() {
		cfg.InputPath = writeURLFile("https://github.com/org/a\nhttps://github.com/org/b\n")

		recA := &models.RepositoryRecord{Repository: "org/a"}
		recB := &models.RepositoryRecord{Repository: "org/b"}
		harvester.On("ProcessRepo", mock.Anything, "https://github.com/org/a").Return(recA)
		harvester.On("ProcessRepo", mock.Anything, "https://github.com/org/b").Return(recB)
		writer.On("WriteRecord", mock.Anything, recA).Return(errors.New("disk full"))
		writer.On("WriteRecord", mock.Anything, recB).Return(nil)

		app := runner.NewApp(cfg, harvester, writer)
		Expect(app.Run(ctx)).To(Succeed())

		writer.AssertNumberOfCalls(GinkgoT(), "WriteRecord", 2)
	})

	It("hopper over blanke linjer i URL-listen", func() {
		cfg.InputPath = writeURLFile("\nhttps://github.com/org/a\n\n\n")

		rec := &models.RepositoryRecord{Repository: "org/a"}
		harvester.On("ProcessRepo", mock.Anything, "https://github.com/org/a").Return(rec)
		writer.On("WriteRecord", mock.Anything, rec).Return(nil)

		app := runner.NewApp(cfg, harvester, writer)
		Expect(app.Run(ctx)).To(Succeed())

		harvester.AssertNumberOfCalls(GinkgoT(), "ProcessRepo", 1)
	})

	It("returnerer feil hvis URL-listen ikke finnes", func() {
		cfg.InputPath = "/finnes/ikke/repos.txt"

		app := runner.NewApp(cfg, harvester, writer)
		err := app.Run(ctx)
		Expect(err).To(MatchError(ContainSubstring("URL-listen")))
	})

	It("kutter URL-listen til 10 repo i debug-modus", func() {
		var lines string
		for i := 0; i < 25; i++ {
			lines += "https://github.com/org/repo\n"
		}
		cfg.InputPath = writeURLFile(lines)
		cfg.Debug = true

		rec := &models.RepositoryRecord{Repository: "org/repo"}
		harvester.On("ProcessRepo", mock.Anything, "https://github.com/org/repo").Return(rec)
		writer.On("WriteRecord", mock.Anything, rec).Return(nil)

		app := runner.NewApp(cfg, harvester, writer)
		Expect(app.Run(ctx)).To(Succeed())

		harvester.AssertNumberOfCalls(GinkgoT(), "ProcessRepo", 10)
	})

	It("kjører parallelt uten å miste poster", func() {
		var lines string
		for i := 0; i < 8; i++ {
			lines += "https://github.com/org/repo\n"
		}
		cfg.InputPath = writeURLFile(lines)
		cfg.Parallelism = 4

		rec := &models.RepositoryRecord{Repository: "org/repo"}
		harvester.On("ProcessRepo", mock.Anything, "https://github.com/org/repo").Return(rec)
		writer.On("WriteRecord", mock.Anything, rec).Return(nil)

		app := runner.NewApp(cfg, harvester, writer)
		Expect(app.Run(ctx)).To(Succeed())

		writer.AssertNumberOfCalls(GinkgoT(), "WriteRecord", 8)
	})
})

var _ = Describe("ByteSize", func() {
	It("formaterer byte-verdier lesbart", func() {
		Expect(runner.ByteSize(512)).To(Equal("512 B"))
		Expect(runner.ByteSize(2048)).To(Equal("2.0 KiB"))
		Expect(runner.ByteSize(3 * 1024 * 1024)).To(Equal("3.0 MiB"))
	})
})
