package processor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/types"
)

type statusUpdate struct {
	uuid, status, errMsg string
}

type fakeStore struct {
	mu       sync.Mutex
	updates  []statusUpdate
	parsed   *models.ParsedResume
	event    *models.OutboxMessage
	saveErr  error
	updateFn func(status string) error
}

func (f *fakeStore) UpdateSubmissionStatus(_ context.Context, uuid, status, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusUpdate{uuid, status, errMsg})
	if f.updateFn != nil {
		return f.updateFn(status)
	}
	return nil
}

func (f *fakeStore) SaveParseOutcome(_ context.Context, parsed *models.ParsedResume, event *models.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.parsed, f.event = parsed, event
	return nil
}

func (f *fakeStore) lastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return ""
	}
	return f.updates[len(f.updates)-1].status
}

type fakeFiles struct {
	data  map[string][]byte
	calls int
}

func (f *fakeFiles) GetResumeFile(_ context.Context, key string) ([]byte, error) {
	f.calls++
	d, ok := f.data[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return d, nil
}

type fakeCache struct {
	results map[string][]byte
	removed []string
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{results: map[string][]byte{}}
}

func (c *fakeCache) GetCachedResult(_ context.Context, md5Hex string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	d, ok := c.results[md5Hex]
	return d, ok, nil
}

func (c *fakeCache) CacheResult(_ context.Context, md5Hex string, data []byte) error {
	c.results[md5Hex] = data
	return nil
}

func (c *fakeCache) RemoveRawFileMD5(_ context.Context, md5Hex string) error {
	c.removed = append(c.removed, md5Hex)
	return nil
}

func uploadMessage(key, filename string) storage.ResumeUploadMessage {
	return storage.ResumeUploadMessage{
		SubmissionUUID:      "0190a0b0-0000-7000-8000-000000000001",
		SubmissionTimestamp: time.Now(),
		SourceChannel:       "test",
		OriginalFilename:    filename,
		OriginalFilePathOSS: key,
		RawFileMD5:          "d41d8cd98f00b204e9800998ecf8427e",
	}
}

func newTestService(store *fakeStore, files *fakeFiles, cache *fakeCache) *ResumeService {
	return NewResumeService(NewResumeParser(&Components{}, nil), store, files,
		WithResultCache(cache),
		WithParsedEventTarget("resume.events", "resume.parsed"),
		WithRetryInterval(time.Millisecond),
	)
}

func TestProcessUploadedResume_Success(t *testing.T) {
	store := &fakeStore{}
	files := &fakeFiles{data: map[string][]byte{"resume/a/original.txt": []byte(textResume)}}
	cache := newFakeCache()
	svc := newTestService(store, files, cache)
	msg := uploadMessage("resume/a/original.txt", "jane.txt")

	require.NoError(t, svc.ProcessUploadedResume(context.Background(), msg))

	require.NotEmpty(t, store.updates)
	assert.Equal(t, models.StatusParsing, store.updates[0].status)
	require.NotNil(t, store.parsed)
	assert.Equal(t, msg.SubmissionUUID, store.parsed.SubmissionUUID)
	assert.Equal(t, "jane.doe@example.com", store.parsed.Email)
	assert.Equal(t, string(types.FormatText), store.parsed.Format)

	var resume types.StructuredResume
	require.NoError(t, json.Unmarshal(store.parsed.ResumeJSON, &resume))
	assert.Len(t, resume.Work, 1)

	require.NotNil(t, store.event)
	assert.Equal(t, models.EventResumeParsed, store.event.EventType)
	assert.Equal(t, "resume.events", store.event.TargetExchange)
	assert.Equal(t, "resume.parsed", store.event.TargetRoutingKey)
	assert.Equal(t, models.OutboxStatusPending, store.event.Status)

	var evt storage.ResumeParsedEvent
	require.NoError(t, json.Unmarshal([]byte(store.event.Payload), &evt))
	assert.Equal(t, msg.SubmissionUUID, evt.SubmissionUUID)
	assert.Equal(t, models.StatusParsed, evt.Status)
	assert.Contains(t, evt.SectionIDs, string(types.SectionExperience))

	assert.Contains(t, cache.results, msg.RawFileMD5, "解析结果应写入缓存")
}

func TestProcessUploadedResume_CacheHit(t *testing.T) {
	store := &fakeStore{}
	files := &fakeFiles{data: map[string][]byte{"resume/a/original.txt": []byte(textResume)}}
	cache := newFakeCache()
	svc := newTestService(store, files, cache)
	msg := uploadMessage("resume/a/original.txt", "jane.txt")

	require.NoError(t, svc.ProcessUploadedResume(context.Background(), msg))
	require.Equal(t, 1, files.calls)

	msg.SubmissionUUID = "0190a0b0-0000-7000-8000-000000000002"
	require.NoError(t, svc.ProcessUploadedResume(context.Background(), msg))
	assert.Equal(t, 1, files.calls, "命中缓存时不应再次下载")
	assert.Equal(t, msg.SubmissionUUID, store.parsed.SubmissionUUID)
	assert.Equal(t, "jane.doe@example.com", store.parsed.Email)
}

func TestProcessUploadedResume_CacheErrorFallsBack(t *testing.T) {
	store := &fakeStore{}
	files := &fakeFiles{data: map[string][]byte{"k": []byte(textResume)}}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	svc := newTestService(store, files, cache)

	require.NoError(t, svc.ProcessUploadedResume(context.Background(), uploadMessage("k", "jane.txt")))
	assert.Equal(t, 1, files.calls)
	assert.NotNil(t, store.parsed)
}

func TestProcessUploadedResume_Failures(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string][]byte
		key        string
		filename   string
		wantStatus string
		wantErr    error
	}{
		{
			name:       "格式不支持",
			files:      map[string][]byte{"k": {0x00, 0x01, 0x02, 0xff}},
			key:        "k",
			filename:   "resume.bin",
			wantStatus: models.StatusUnsupportedFormat,
			wantErr:    parser.ErrUnsupportedFormat,
		},
		{
			name:       "文档损坏",
			files:      map[string][]byte{"k": []byte("not a zip")},
			key:        "k",
			filename:   "resume.docx",
			wantStatus: models.StatusParseFailed,
			wantErr:    parser.ErrCorruptDocument,
		},
		{
			name:       "下载失败",
			files:      map[string][]byte{},
			key:        "missing",
			filename:   "resume.pdf",
			wantStatus: models.StatusParseFailed,
			wantErr:    ErrDownloadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			cache := newFakeCache()
			svc := newTestService(store, &fakeFiles{data: tt.files}, cache)
			msg := uploadMessage(tt.key, tt.filename)

			err := svc.ProcessUploadedResume(context.Background(), msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, IsRetryable(err))

			var pe *ResumeParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, msg.SubmissionUUID, pe.SubmissionUUID)

			assert.Equal(t, tt.wantStatus, store.lastStatus())
			assert.NotEmpty(t, store.updates[len(store.updates)-1].errMsg)
			assert.Equal(t, []string{msg.RawFileMD5}, cache.removed, "失败后应回滚去重登记")
			assert.Nil(t, store.parsed)
		})
	}
}

func TestProcessUploadedResume_InvalidMessage(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeFiles{}, newFakeCache())

	err := svc.ProcessUploadedResume(context.Background(), storage.ResumeUploadMessage{})
	assert.ErrorIs(t, err, ErrInvalidMessage)
	assert.Empty(t, store.updates)
}

func TestHandleMessage(t *testing.T) {
	t.Run("无法解析的消息直接确认", func(t *testing.T) {
		svc := newTestService(&fakeStore{}, &fakeFiles{}, newFakeCache())
		assert.True(t, svc.HandleMessage(context.Background(), []byte("{not json")))
	})

	t.Run("成功确认", func(t *testing.T) {
		files := &fakeFiles{data: map[string][]byte{"k": []byte(textResume)}}
		svc := newTestService(&fakeStore{}, files, newFakeCache())
		body, err := json.Marshal(uploadMessage("k", "jane.txt"))
		require.NoError(t, err)
		assert.True(t, svc.HandleMessage(context.Background(), body))
	})

	t.Run("解析失败不重投", func(t *testing.T) {
		files := &fakeFiles{data: map[string][]byte{"k": {0x00, 0x01}}}
		store := &fakeStore{}
		svc := newTestService(store, files, newFakeCache())
		body, err := json.Marshal(uploadMessage("k", "resume.bin"))
		require.NoError(t, err)
		assert.True(t, svc.HandleMessage(context.Background(), body))
		assert.Equal(t, models.StatusUnsupportedFormat, store.lastStatus())
	})

	t.Run("存储失败重投", func(t *testing.T) {
		files := &fakeFiles{data: map[string][]byte{"k": []byte(textResume)}}
		store := &fakeStore{saveErr: errors.New("deadlock")}
		svc := newTestService(store, files, newFakeCache())
		body, err := json.Marshal(uploadMessage("k", "jane.txt"))
		require.NoError(t, err)
		assert.False(t, svc.HandleMessage(context.Background(), body))
	})

	t.Run("状态更新失败重投", func(t *testing.T) {
		store := &fakeStore{updateFn: func(string) error { return errors.New("db down") }}
		svc := newTestService(store, &fakeFiles{}, newFakeCache())
		body, err := json.Marshal(uploadMessage("k", "jane.txt"))
		require.NoError(t, err)
		assert.False(t, svc.HandleMessage(context.Background(), body))
	})
}

func TestResumeParseError(t *testing.T) {
	cause := errors.New("bad xref")
	err := NewExtractError("u-1", cause)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "提取简历内容失败 (操作:extract, UUID:u-1): bad xref", err.Error())

	assert.True(t, IsRetryable(NewStoreError("u-1", cause)))
	assert.True(t, IsRetryable(NewUpdateError("u-1", cause)))
	assert.False(t, IsRetryable(NewDownloadError("u-1", cause)))
	assert.False(t, IsRetryable(NewOCRError("u-1", cause)))
}
