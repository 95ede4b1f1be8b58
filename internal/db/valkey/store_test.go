package valkey

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/prodsearch/internal/db"
)

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestPing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(context.DeadlineExceeded)),
	)

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.Ping(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing {
		t.Errorf("expected PING db.Error, got %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), 250*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k1")).
		Return(mock.Result(mock.RedisBlobString("\x00\x01")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "broken")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "k1")
	if err != nil || string(data) != "\x00\x01" {
		t.Fatalf("Get(k1) = %q, %v", data, err)
	}
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	_, err = s.Get(context.Background(), "broken")
	if errors.Is(err, db.ErrKeyNotFound) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped network error, got %v", err)
	}
}

func TestGetMulti(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), mock.Match("GET", "a"), mock.Match("GET", "b")).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisNil()),
			mock.Result(mock.RedisBlobString("vb")),
		})

	s := NewStoreForTest(c)
	got, err := s.GetMulti(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != nil || string(got[1]) != "vb" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestGetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	got, err := s.GetMulti(context.Background(), nil)
	if err != nil || got != nil {
		t.Errorf("GetMulti(nil) = %v, %v", got, err)
	}
}

func TestGetMulti_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.ErrorResult(context.Canceled)})

	s := NewStoreForTest(c)
	if _, err := s.GetMulti(context.Background(), []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error with ttl: %v", err)
	}
}

func TestSetMulti(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("SET", "a", "1", "EX", "30"),
			mock.Match("SET", "b", "2", "EX", "30"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.ErrorResult(errors.New("OOM")),
		})

	s := NewStoreForTest(c)
	err := s.SetMulti(context.Background(), []db.KVItem{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte("2")},
	}, 30*time.Second)

	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpSet {
		t.Errorf("expected SET db.Error, got %v", err)
	}
	if err := s.SetMulti(context.Background(), nil, 0); err != nil {
		t.Errorf("SetMulti(nil) = %v", err)
	}
}
