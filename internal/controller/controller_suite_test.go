package controller

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

//go:generate mockgen -destination mock_iface_test.go -package controller -write_package_comment=false github.com/san-kum/jointsim/internal/iface Iface
//go:generate mockgen -destination mock_plugin_test.go -package controller -self_package=github.com/san-kum/jointsim/internal/controller -write_package_comment=false github.com/san-kum/jointsim/internal/controller Plugin

func TestController(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Controller")
}
