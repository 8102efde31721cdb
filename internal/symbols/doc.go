// Package symbols resolves firmware addresses to function names using the
// ENTRY LIST section of an IAR linker map file.
//
// The entry list has one record per line:
//
//	Entry                      Address    Size  Type      Object
//	-----                      -------    ----  ----      ------
//	AHBPrescTable           0x0801f124    0x10  Data  Gb  system_stm32f3xx.o [5]
//	AddLink                 0x0800cdcd   0x1de  Code  Lc  LinkManager.o [33]
//
// Names too long for the first column are wrapped onto two lines:
//
//	ICharger_IsChargingEnabled
//	                        0x0801b1fd     0x8  Code  Gb  Charger.o [30]
//
// Records without a size column (linker-created symbols such as
// ".iar.init_table$$Base" or "?main") are skipped, as is every other line
// that is not an entry.
//
// A Table is built once and is immutable afterwards, so it may be shared
// between goroutines without locking.
package symbols
