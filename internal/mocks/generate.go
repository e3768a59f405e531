package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Store --dir ../domain/document --output domain/document --outpkg documentmock --filename store_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name AttendanceExporter --dir ../usecase --output usecase --outpkg usecasemock --filename attendance_exporter_mock.go
