// Package mocks provides testify based test doubles for the ports package.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"meteobot.app/internal/ports"
)

// Geocoder is a mock implementation of ports.Geocoder
type Geocoder struct {
	mock.Mock
}

// NewGeocoder creates a Geocoder mock that asserts its expectations on cleanup
func NewGeocoder(t interface {
	mock.TestingT
	Cleanup(func())
}) *Geocoder {
	m := &Geocoder{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Geocoder) Resolve(ctx context.Context, town string) (*ports.GeoInfo, error) {
	args := m.Called(ctx, town)
	geo, _ := args.Get(0).(*ports.GeoInfo)
	return geo, args.Error(1)
}

func (m *Geocoder) GetProviderName() string {
	return "mock-geocoder"
}

// ForecastProvider is a mock implementation of ports.ForecastProvider
type ForecastProvider struct {
	mock.Mock
}

// NewForecastProvider creates a ForecastProvider mock that asserts its expectations on cleanup
func NewForecastProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *ForecastProvider {
	m := &ForecastProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ForecastProvider) Fetch(ctx context.Context, latitude, longitude float64) (*ports.ForecastResult, error) {
	args := m.Called(ctx, latitude, longitude)
	result, _ := args.Get(0).(*ports.ForecastResult)
	return result, args.Error(1)
}

func (m *ForecastProvider) GetProviderName() string {
	return "mock-forecast"
}

// ChatClient is a mock implementation of ports.ChatClient
type ChatClient struct {
	mock.Mock
}

// NewChatClient creates a ChatClient mock that asserts its expectations on cleanup
func NewChatClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *ChatClient {
	m := &ChatClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ChatClient) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *ChatClient) Disconnect() {
	m.Called()
}

func (m *ChatClient) GetUpdates(ctx context.Context, offset int64) (*ports.UpdateBatch, error) {
	args := m.Called(ctx, offset)
	batch, _ := args.Get(0).(*ports.UpdateBatch)
	return batch, args.Error(1)
}

func (m *ChatClient) SendMessage(ctx context.Context, chatID, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

// CacheProvider is a mock implementation of ports.CacheProvider
type CacheProvider struct {
	mock.Mock
}

// NewCacheProvider creates a CacheProvider mock that asserts its expectations on cleanup
func NewCacheProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *CacheProvider {
	m := &CacheProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *CacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	value, _ := args.Get(0).([]byte)
	return value, args.Error(1)
}

func (m *CacheProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *CacheProvider) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *CacheProvider) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
