// datafiles_test.go — unit-тесты загрузки файлов данных на стабах.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/George-Hudson/TANF-app/internal/domain/model"
	"github.com/George-Hudson/TANF-app/internal/repository"
)

// fakeFileRepo — стаб DataFileRepository с нумерацией версий.
type fakeFileRepo struct {
	files     []*model.DataFile
	createErr error
}

func (f *fakeFileRepo) Create(_ context.Context, file *model.DataFile) error {
	if f.createErr != nil {
		return f.createErr
	}
	version := 1
	for _, existing := range f.files {
		if existing.Year == file.Year && existing.Quarter == file.Quarter && existing.Section == file.Section {
			if existing.Version >= version {
				version = existing.Version + 1
			}
		}
	}
	file.ID = fmt.Sprintf("00000000-0000-0000-0001-%012d", len(f.files)+1)
	file.Version = version
	f.files = append(f.files, file)
	return nil
}

func (f *fakeFileRepo) GetByID(_ context.Context, id string) (*model.DataFile, error) {
	for _, file := range f.files {
		if file.ID == id {
			return file, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeFileRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*model.DataFile, error) {
	var result []*model.DataFile
	for _, file := range f.files {
		if file.UserID != nil && *file.UserID == userID {
			result = append(result, file)
		}
	}
	return result, nil
}

// fakeStore — стаб ObjectStore, складывающий объекты в map.
type fakeStore struct {
	objects map[string][]byte
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Put(_ context.Context, key string, body io.Reader) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("объект не найден")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func setupDataFiles(t *testing.T, result model.ScanResult) (*DataFilesService, *fakeFileRepo, *fakeScanRepo, *fakeStore) {
	t.Helper()
	scanRepo := &fakeScanRepo{}
	fileRepo := &fakeFileRepo{}
	store := newFakeStore()
	scans := NewScanService(&fakeScanner{result: result}, scanRepo, testLogger())
	svc := NewDataFilesService(scans, fileRepo, store, testLogger())
	return svc, fileRepo, scanRepo, store
}

func uploadRequest() *UploadRequest {
	return &UploadRequest{
		FileName: "ADS.E2J.FTP1.TS06.txt",
		Content:  []byte("HEADER20201A01   TAN1ED"),
		Year:     2020,
		Quarter:  "Q1",
		Section:  model.SectionActiveCase,
	}
}

func uploader() *model.User {
	return &model.User{ID: "00000000-0000-0000-0000-000000000001", IsActive: true}
}

// TestUpload_Clean проверяет полный путь: скан, регистрация, сохранение.
func TestUpload_Clean(t *testing.T) {
	svc, fileRepo, scanRepo, store := setupDataFiles(t, model.ScanResultClean)

	file, scan, err := svc.Upload(context.Background(), uploadRequest(), uploader())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if file == nil || file.ID == "" {
		t.Fatal("файл данных не зарегистрирован")
	}
	if file.Version != 1 {
		t.Errorf("Version = %d, ожидалась 1", file.Version)
	}
	if file.Extension != "txt" {
		t.Errorf("Extension = %q, ожидалось txt", file.Extension)
	}
	if !strings.HasPrefix(file.Slug, "data_files/2020/Q1/") {
		t.Errorf("Slug = %q, ожидался префикс data_files/2020/Q1/", file.Slug)
	}
	if scan.DataFileID == nil || *scan.DataFileID != file.ID {
		t.Error("скан должен быть привязан к файлу данных")
	}
	if len(scanRepo.scans) != 1 {
		t.Errorf("сканов записано %d, ожидался 1", len(scanRepo.scans))
	}
	stored, ok := store.objects[file.Slug]
	if !ok {
		t.Fatal("содержимое не сохранено в хранилище")
	}
	if !bytes.Equal(stored, uploadRequest().Content) {
		t.Error("содержимое в хранилище не совпадает с загруженным")
	}
	if len(fileRepo.files) != 1 {
		t.Errorf("файлов зарегистрировано %d, ожидался 1", len(fileRepo.files))
	}
}

// TestUpload_Infected проверяет отказ для заражённого файла:
// скан записан, файл не зарегистрирован и не сохранён.
func TestUpload_Infected(t *testing.T) {
	svc, fileRepo, scanRepo, store := setupDataFiles(t, model.ScanResultInfected)

	file, scan, err := svc.Upload(context.Background(), uploadRequest(), uploader())
	if !errors.Is(err, ErrInfectedFile) {
		t.Fatalf("err = %v, ожидался ErrInfectedFile", err)
	}
	if file != nil {
		t.Error("заражённый файл не должен регистрироваться")
	}
	if scan == nil || scan.Result != model.ScanResultInfected {
		t.Error("скан с результатом INFECTED должен быть возвращён")
	}
	if len(scanRepo.scans) != 1 || len(scanRepo.entries) != 1 {
		t.Error("скан и запись аудита должны быть записаны и для заражённого файла")
	}
	if len(store.objects) != 0 {
		t.Error("заражённый файл не должен попадать в хранилище")
	}
	if len(fileRepo.files) != 0 {
		t.Error("запись файла данных не должна создаваться")
	}
}

// TestUpload_ScannerDown проверяет отказ при недоступном сканере.
func TestUpload_ScannerDown(t *testing.T) {
	scanRepo := &fakeScanRepo{}
	fileRepo := &fakeFileRepo{}
	store := newFakeStore()
	scanner := &fakeScanner{result: model.ScanResultError, err: errors.New("нет соединения")}
	scans := NewScanService(scanner, scanRepo, testLogger())
	svc := NewDataFilesService(scans, fileRepo, store, testLogger())

	file, scan, err := svc.Upload(context.Background(), uploadRequest(), uploader())
	if !errors.Is(err, ErrScanUnavailable) {
		t.Fatalf("err = %v, ожидался ErrScanUnavailable", err)
	}
	if file != nil || len(store.objects) != 0 {
		t.Error("непроверенный файл не должен сохраняться")
	}
	if scan == nil || scan.Result != model.ScanResultError {
		t.Error("скан с результатом ERROR должен быть записан и возвращён")
	}
	if len(scanRepo.scans) != 1 {
		t.Error("результат ERROR должен быть записан")
	}
}

// TestUpload_Versioning проверяет рост версии при повторной загрузке
// того же отчётного периода.
func TestUpload_Versioning(t *testing.T) {
	svc, _, _, _ := setupDataFiles(t, model.ScanResultClean)

	first, _, err := svc.Upload(context.Background(), uploadRequest(), uploader())
	if err != nil {
		t.Fatalf("первая загрузка: %v", err)
	}
	second, _, err := svc.Upload(context.Background(), uploadRequest(), uploader())
	if err != nil {
		t.Fatalf("вторая загрузка: %v", err)
	}
	if first.Version != 1 || second.Version != 2 {
		t.Errorf("версии %d/%d, ожидались 1/2", first.Version, second.Version)
	}
	if first.Slug == second.Slug {
		t.Error("ключи хранилища разных версий должны различаться")
	}
}

// TestUpload_Validation проверяет отказ до обращения к сканеру.
func TestUpload_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*UploadRequest)
	}{
		{"пустое имя файла", func(r *UploadRequest) { r.FileName = "" }},
		{"пустое содержимое", func(r *UploadRequest) { r.Content = nil }},
		{"год до начала отчётности", func(r *UploadRequest) { r.Year = 1997 }},
		{"некорректный квартал", func(r *UploadRequest) { r.Quarter = "Q5" }},
		{"некорректная секция", func(r *UploadRequest) { r.Section = "Unknown" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, scanRepo, _ := setupDataFiles(t, model.ScanResultClean)
			req := uploadRequest()
			tt.mutate(req)

			if _, _, err := svc.Upload(context.Background(), req, uploader()); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, ожидался ErrValidation", err)
			}
			if len(scanRepo.scans) != 0 {
				t.Error("невалидный запрос не должен доходить до сканера")
			}
		})
	}
}

// TestGet_Ownership проверяет, что чужой файл недоступен обычному
// пользователю, но доступен staff.
func TestGet_Ownership(t *testing.T) {
	svc, _, _, _ := setupDataFiles(t, model.ScanResultClean)

	owner := uploader()
	file, _, err := svc.Upload(context.Background(), uploadRequest(), owner)
	if err != nil {
		t.Fatalf("подготовка: %v", err)
	}

	got, err := svc.Get(context.Background(), file.ID, owner)
	if err != nil || got.ID != file.ID {
		t.Errorf("владелец должен видеть свой файл: %v", err)
	}

	stranger := &model.User{ID: "00000000-0000-0000-0000-000000000099", IsActive: true}
	if _, err := svc.Get(context.Background(), file.ID, stranger); !errors.Is(err, ErrNotFound) {
		t.Errorf("чужой файл должен быть неотличим от несуществующего, err = %v", err)
	}

	staff := &model.User{ID: "00000000-0000-0000-0000-000000000098", IsActive: true, IsStaff: true}
	if _, err := svc.Get(context.Background(), file.ID, staff); err != nil {
		t.Errorf("staff должен видеть любой файл: %v", err)
	}

	if _, err := svc.Get(context.Background(), "00000000-0000-0000-0001-999999999999", staff); !errors.Is(err, ErrNotFound) {
		t.Errorf("для несуществующего файла ожидался ErrNotFound, err = %v", err)
	}
}

// TestFileExtension проверяет извлечение расширения.
func TestFileExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.txt", "txt"},
		{"ADS.E2J.FTP1.TS06", "ts06"},
		{"noext", "txt"},
		{"archive.TXT", "txt"},
	}
	for _, tt := range tests {
		if got := fileExtension(tt.in); got != tt.want {
			t.Errorf("fileExtension(%q) = %q, ожидалось %q", tt.in, got, tt.want)
		}
	}
}
