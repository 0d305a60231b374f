package session

import "github.com/stretchr/testify/mock"

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Load() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) Save(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockTokenStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}
