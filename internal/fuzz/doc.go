// Package fuzztests houses Go fuzz harnesses that exercise the flux text
// front end (source -> lines -> parser -> printer). Its goal is to smoke
// test robustness against panics on arbitrary inputs and to guard the
// parse/print round trip: whatever the parser accepts must print into
// text the parser accepts again, unchanged.
//
// Назначение: прогонять произвольные байты через парсер, проверять
// неподвижную точку канонической печати и гонять принятые схемы через
// каноническое понижение до низкой формы.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/parser, internal/circuit, internal/pass,
// internal/pipeline.

package fuzztests
