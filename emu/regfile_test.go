package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomsim/emu"
)

var _ = Describe("RegFile", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = emu.NewRegFile()
	})

	It("should start with all registers zero and unproduced", func() {
		for reg := uint8(0); reg < emu.NumRegisters; reg++ {
			value, tag := regFile.Read(reg)
			Expect(value).To(Equal(0.0))
			Expect(tag).To(BeEmpty())
		}
	})

	It("should record a pending producer on rename", func() {
		regFile.Rename(3, "Add1")

		_, tag := regFile.Read(3)
		Expect(tag).To(Equal("Add1"))
	})

	It("should keep the stale value visible while renamed", func() {
		regFile.Commit(3, 7)
		regFile.Rename(3, "Mul1")

		value, tag := regFile.Read(3)
		Expect(value).To(Equal(7.0))
		Expect(tag).To(Equal("Mul1"))
	})

	It("should clear the producer on commit", func() {
		regFile.Rename(3, "Add1")
		regFile.Commit(3, 42)

		value, tag := regFile.Read(3)
		Expect(value).To(Equal(42.0))
		Expect(tag).To(BeEmpty())
	})

	It("should let a later rename replace the current producer", func() {
		regFile.Rename(3, "Add1")
		regFile.Rename(3, "Add2")

		_, tag := regFile.Read(3)
		Expect(tag).To(Equal("Add2"))
	})

	It("should commit unconditionally, even from a stale producer", func() {
		regFile.Rename(3, "Add1")
		regFile.Rename(3, "Add2")

		// Add1 is no longer the current producer, yet its commit lands.
		regFile.Commit(3, 1)

		value, tag := regFile.Read(3)
		Expect(value).To(Equal(1.0))
		Expect(tag).To(BeEmpty())
	})

	It("should reset values and producers", func() {
		regFile.Commit(1, 5)
		regFile.Rename(2, "Load1")

		regFile.Reset()

		value, tag := regFile.Read(1)
		Expect(value).To(Equal(0.0))
		Expect(tag).To(BeEmpty())
		_, tag = regFile.Read(2)
		Expect(tag).To(BeEmpty())
	})

	It("should snapshot all 32 entries", func() {
		regFile.Commit(5, 9)
		regFile.Rename(6, "Mul2")

		snapshot := regFile.Snapshot()

		Expect(snapshot).To(HaveLen(emu.NumRegisters))
		Expect(snapshot[5].Value).To(Equal(9.0))
		Expect(snapshot[6].Tag).To(Equal("Mul2"))
	})
})
